package builder

import (
	"time"

	"github.com/iliyamo/box-builder/internal/model"
)

// Session is one customer's box in progress. It is a value: every method
// returns an updated copy and leaves the receiver untouched.
type Session struct {
	ID         string            `json:"id"`
	Box        *model.Box        `json:"box"`
	Placements []model.Placement `json:"placements"`
	Version    uint64            `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// SelectBox switches to box. Slot indices do not carry over between
// geometries, so all placements are dropped.
func (s Session) SelectBox(box model.Box) Session {
	b := box.Clone()
	s.Box = &b
	s.Placements = []model.Placement{}
	return s
}

// AddItem auto-places item and returns the slot it landed in.
func (s Session) AddItem(item model.Item) (Session, int, error) {
	if s.Box == nil {
		return s, -1, ErrNoBoxSelected
	}
	if !item.InStock {
		return s, -1, ErrItemUnavailable
	}
	next, slot, err := AddPlacement(s.Box, s.Placements, item.ID)
	if err != nil {
		return s, -1, err
	}
	s.Placements = next
	return s, slot, nil
}

// RemoveSlot empties slot.
func (s Session) RemoveSlot(slot int) Session {
	s.Placements = RemovePlacement(s.Placements, slot)
	return s
}

// Clear forgets the box and every placement.
func (s Session) Clear() Session {
	s.Box = nil
	s.Placements = []model.Placement{}
	return s
}

func (s Session) Filled() int { return len(s.Placements) }

// CapacityLeft is zero when no box is selected.
func (s Session) CapacityLeft() int {
	if s.Box == nil {
		return 0
	}
	return max(s.Box.Capacity-len(s.Placements), 0)
}

func (s Session) Total(items map[string]model.Item) int64 {
	return ComputeTotal(s.Box, s.Placements, items)
}

// NewOrder snapshots s into an order. The session itself is not changed;
// callers clear it once the order is stored.
func NewOrder(s Session, items map[string]model.Item, status model.OrderStatus, now time.Time) (model.Order, error) {
	if s.Box == nil {
		return model.Order{}, ErrNoBoxSelected
	}
	if !status.Valid() {
		return model.Order{}, ErrInvalidStatus
	}
	placements := make([]model.Placement, len(s.Placements))
	copy(placements, s.Placements)
	return model.Order{
		BoxID:      s.Box.ID,
		BoxName:    s.Box.Name,
		Placements: placements,
		Extras:     []string{},
		Total:      s.Total(items),
		Status:     status,
		CreatedAt:  now.UTC(),
	}, nil
}
