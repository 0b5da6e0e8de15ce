// Package builder places catalog items into the slots of a box and keeps the
// in-memory composition sessions customers work in.
package builder

import (
	"errors"
	"fmt"
	"slices"

	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
)

var (
	// ErrNoBoxSelected is returned when an item is added or an order is
	// placed before a box was chosen.
	ErrNoBoxSelected = errors.New("no box selected")
	// ErrCapacityExceeded is returned when every slot is already taken.
	ErrCapacityExceeded = errors.New("box is full")
	// ErrSlotResolution means the fill order has no free slot although the
	// box still has capacity. It points at malformed box geometry.
	ErrSlotResolution = errors.New("no free slot in fill order")
	ErrItemUnavailable = errors.New("item is out of stock")
	ErrInvalidStatus   = errors.New("invalid order status")
)

// ChooseNextSlot returns the first slot in the fill order of g that no
// placement occupies.
func ChooseNextSlot(g layout.Geometry, placements []model.Placement) (int, bool) {
	taken := occupied(placements)
	for _, slot := range layout.FillOrder(g) {
		if !taken[slot] {
			return slot, true
		}
	}
	return -1, false
}

// AddPlacement puts itemID into the next free slot of box and returns the
// new placement list along with the chosen slot. The input slice is never
// modified.
func AddPlacement(box *model.Box, placements []model.Placement, itemID string) ([]model.Placement, int, error) {
	if box == nil {
		return placements, -1, ErrNoBoxSelected
	}
	if len(placements) >= box.Capacity {
		return placements, -1, ErrCapacityExceeded
	}
	slot, ok := ChooseNextSlot(box.Geometry, placements)
	if !ok {
		return placements, -1, fmt.Errorf("%w: box %q template %q has %d of %d slots filled",
			ErrSlotResolution, box.ID, box.TemplateKey, len(placements), box.Capacity)
	}
	out := make([]model.Placement, len(placements), len(placements)+1)
	copy(out, placements)
	return append(out, model.Placement{Slot: slot, ItemID: itemID}), slot, nil
}

// RemovePlacement drops whatever sits in slot. An empty slot is not an error.
func RemovePlacement(placements []model.Placement, slot int) []model.Placement {
	return slices.DeleteFunc(slices.Clone(placements), func(p model.Placement) bool {
		return p.Slot == slot
	})
}

// ComputeTotal adds the box price to the price of every placed item. Items
// missing from the catalog count as zero.
func ComputeTotal(box *model.Box, placements []model.Placement, items map[string]model.Item) int64 {
	var total int64
	if box != nil {
		total = box.Price
	}
	for _, p := range placements {
		if it, ok := items[p.ItemID]; ok {
			total += it.Price
		}
	}
	return total
}

func occupied(placements []model.Placement) map[int]bool {
	taken := make(map[int]bool, len(placements))
	for _, p := range placements {
		taken[p.Slot] = true
	}
	return taken
}
