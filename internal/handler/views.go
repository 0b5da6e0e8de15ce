package handler

import (
	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
)

type layoutView struct {
	Key       string            `json:"key,omitempty"`
	Shape     layout.Shape      `json:"shape"`
	Capacity  int               `json:"capacity"`
	Inner     layout.Rect       `json:"inner"`
	SlotSize  float64           `json:"slot_size"`
	FillRule  string            `json:"fill_rule"`
	FillOrder []int             `json:"fill_order"`
	Board     []layout.Position `json:"board"`
}

func newLayoutView(p *layout.Projector, g layout.Geometry) layoutView {
	return layoutView{
		Key:       g.TemplateKey,
		Shape:     g.Shape,
		Capacity:  g.Capacity,
		Inner:     p.ResolveInner(g),
		SlotSize:  p.ResolveSlotSize(g),
		FillRule:  layout.FillRule(g),
		FillOrder: layout.FillOrder(g),
		Board:     p.Board(g),
	}
}

type templateView struct {
	Key      string       `json:"key"`
	Label    string       `json:"label"`
	Shape    layout.Shape `json:"shape"`
	Capacity int          `json:"capacity"`
	SlotSize float64      `json:"slot_size"`
	FillRule string       `json:"fill_rule"`
}

// boardSlot is a projected slot with the item occupying it, if any.
type boardSlot struct {
	layout.Position
	ItemID string `json:"item_id,omitempty"`
}

type sessionView struct {
	ID           string            `json:"id"`
	Box          *model.Box        `json:"box"`
	Placements   []model.Placement `json:"placements"`
	Board        []boardSlot       `json:"board"`
	FillOrder    []int             `json:"fill_order"`
	Filled       int               `json:"filled"`
	CapacityLeft int               `json:"capacity_left"`
	Total        int64             `json:"total"`
}

type tokenPart struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}
