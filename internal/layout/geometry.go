// Package layout holds the slot geometry of confection boxes: the fixed
// template registry, the projection of normalized slot coordinates onto a
// container, and the deterministic fill order used to auto-place items.
//
// All coordinates are normalized. Inner rectangles are expressed relative to
// the box image (0..1, top-left origin) and slot coordinates are expressed
// relative to the inner rectangle.
package layout

import (
	"math"
	"strings"
)

// Shape is the closed set of physical box outlines.
type Shape string

const (
	ShapeRect  Shape = "rect"
	ShapeRound Shape = "round"
	ShapeHeart Shape = "heart"
)

// ParseShape normalizes a shape name. Aliases such as "rectangle" and
// "circle" are accepted; anything else is reported as not ok.
func ParseShape(s string) (Shape, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rect", "rectangle", "square":
		return ShapeRect, true
	case "round", "circle", "ring":
		return ShapeRound, true
	case "heart":
		return ShapeHeart, true
	}
	return "", false
}

// Valid reports whether s is one of the known shapes.
func (s Shape) Valid() bool {
	switch s {
	case ShapeRect, ShapeRound, ShapeHeart:
		return true
	}
	return false
}

// UnmarshalText normalizes known aliases. Unknown values are kept lower-cased
// so legacy documents still load; Valid reports them as unknown.
func (s *Shape) UnmarshalText(b []byte) error {
	if v, ok := ParseShape(string(b)); ok {
		*s = v
		return nil
	}
	*s = Shape(strings.ToLower(strings.TrimSpace(string(b))))
	return nil
}

// Point is a normalized slot coordinate.
type Point struct {
	X float64 `json:"x" bson:"x" toml:"x"`
	Y float64 `json:"y" bson:"y" toml:"y"`
}

// Rect is a normalized rectangle with a top-left origin.
type Rect struct {
	X float64 `json:"x" bson:"x" toml:"x"`
	Y float64 `json:"y" bson:"y" toml:"y"`
	W float64 `json:"w" bson:"w" toml:"w"`
	H float64 `json:"h" bson:"h" toml:"h"`
}

// UnitRect covers the whole box image.
var UnitRect = Rect{X: 0, Y: 0, W: 1, H: 1}

// usable reports whether r has a positive area.
func (r Rect) usable() bool { return r.W > 0 && r.H > 0 }

// within reports whether r lies inside the unit square.
func (r Rect) within() bool {
	return in01(r.X) && in01(r.Y) && r.W > 0 && r.H > 0 && r.X+r.W <= 1+epsilon && r.Y+r.H <= 1+epsilon
}

// Geometry is the slot description copied from a template onto a box.
type Geometry struct {
	Shape       Shape   `json:"shape" bson:"shape"`
	Capacity    int     `json:"capacity" bson:"capacity"`
	SlotMap     []Point `json:"slot_map" bson:"slot_map"`
	Inner       *Rect   `json:"inner,omitempty" bson:"inner,omitempty"`
	SlotSize    float64 `json:"slot_size,omitempty" bson:"slot_size,omitempty"`
	Order       []int   `json:"order,omitempty" bson:"order,omitempty"`
	TemplateKey string  `json:"template_key,omitempty" bson:"template_key,omitempty"`
}

// Clone returns a deep copy of g.
func (g Geometry) Clone() Geometry {
	out := g
	if g.SlotMap != nil {
		out.SlotMap = append([]Point(nil), g.SlotMap...)
	}
	if g.Order != nil {
		out.Order = append([]int(nil), g.Order...)
	}
	if g.Inner != nil {
		r := *g.Inner
		out.Inner = &r
	}
	return out
}

// Tall reports whether the inner rectangle is markedly taller than wide.
// Boxes without an inner rectangle count as square.
func (g Geometry) Tall() bool {
	if g.Inner == nil || g.Inner.W <= 0 {
		return false
	}
	return g.Inner.H/g.Inner.W > tallRatio
}

// slotCount is the number of addressable slots that also have coordinates.
func (g Geometry) slotCount() int {
	if g.Capacity < len(g.SlotMap) {
		return max(g.Capacity, 0)
	}
	return len(g.SlotMap)
}

const (
	tallRatio = 1.35
	epsilon   = 1e-9
)

func in01(v float64) bool { return v >= 0 && v <= 1 }

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
