package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
)

func templateBox(t *testing.T, key string, price int64) model.Box {
	t.Helper()
	tpl, ok := layout.Default().Lookup(key)
	require.True(t, ok, key)
	b := model.NewBoxFromTemplate(tpl, model.BoxFields{Name: tpl.Label, Price: price, Active: true})
	b.ID = "box-" + key
	return b
}

func uniqueSlots(t *testing.T, placements []model.Placement) {
	t.Helper()
	seen := map[int]bool{}
	for _, p := range placements {
		assert.False(t, seen[p.Slot], "slot %d placed twice", p.Slot)
		seen[p.Slot] = true
	}
}

func TestAddPlacementFillsInOrder(t *testing.T) {
	box := templateBox(t, "round9_ring", 0)
	want := layout.FillOrder(box.Geometry)

	var placements []model.Placement
	for i := 0; i < box.Capacity; i++ {
		next, slot, err := AddPlacement(&box, placements, "it")
		require.NoError(t, err)
		assert.Len(t, next, len(placements)+1)
		assert.Equal(t, want[i], slot)
		placements = next
		uniqueSlots(t, placements)
	}

	_, _, err := AddPlacement(&box, placements, "it")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Len(t, placements, box.Capacity)
}

func TestAddPlacementDoesNotMutateInput(t *testing.T) {
	box := templateBox(t, "rect6_tall", 0)
	in := make([]model.Placement, 1, 8)
	in[0] = model.Placement{Slot: 0, ItemID: "a"}

	out, slot, err := AddPlacement(&box, in, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, slot)
	assert.Len(t, in, 1)
	out[0].ItemID = "changed"
	assert.Equal(t, "a", in[0].ItemID)
}

func TestAddPlacementNoBox(t *testing.T) {
	_, _, err := AddPlacement(nil, nil, "a")
	assert.ErrorIs(t, err, ErrNoBoxSelected)
}

func TestAddPlacementSlotResolutionFailure(t *testing.T) {
	// Explicit order only covers two of four slots.
	box := model.Box{ID: "broken", Geometry: layout.Geometry{
		Shape:    layout.ShapeRect,
		Capacity: 4,
		SlotMap:  make([]layout.Point, 4),
		Order:    []int{0, 1},
	}}
	placements := []model.Placement{{Slot: 0, ItemID: "a"}, {Slot: 1, ItemID: "b"}}

	got, _, err := AddPlacement(&box, placements, "c")
	require.ErrorIs(t, err, ErrSlotResolution)
	assert.NotErrorIs(t, err, ErrCapacityExceeded)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, placements, got)
}

func TestChooseNextSlotSkipsOccupied(t *testing.T) {
	box := templateBox(t, "rect12_square", 0)
	placements := []model.Placement{{Slot: 0}, {Slot: 2}, {Slot: 1}}

	slot, ok := ChooseNextSlot(box.Geometry, placements)
	require.True(t, ok)
	assert.Equal(t, 3, slot)

	// A removed slot is reused before later ones.
	slot, ok = ChooseNextSlot(box.Geometry, RemovePlacement(placements, 1))
	require.True(t, ok)
	assert.Equal(t, 1, slot)
}

func TestRemovePlacement(t *testing.T) {
	placements := []model.Placement{{Slot: 3, ItemID: "a"}, {Slot: 5, ItemID: "b"}}

	assert.Equal(t, placements, RemovePlacement(placements, 4))
	assert.Equal(t, []model.Placement{{Slot: 5, ItemID: "b"}}, RemovePlacement(placements, 3))
	assert.Len(t, placements, 2)
}

func TestComputeTotal(t *testing.T) {
	box := &model.Box{Price: 2000}
	items := map[string]model.Item{
		"a": {ID: "a", Price: 350},
		"b": {ID: "b", Price: 400},
	}
	placements := []model.Placement{{Slot: 0, ItemID: "a"}, {Slot: 1, ItemID: "b"}}
	assert.Equal(t, int64(2750), ComputeTotal(box, placements, items))

	// Stale references count as zero.
	placements = append(placements, model.Placement{Slot: 2, ItemID: "gone"})
	assert.Equal(t, int64(2750), ComputeTotal(box, placements, items))

	assert.Equal(t, int64(0), ComputeTotal(nil, nil, items))
}
