package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ringGeometry(n int, radius float64) Geometry {
	return Geometry{
		Shape:    ShapeRound,
		Capacity: n,
		SlotMap:  ringSpec{Radius: radius}.points(n),
	}
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

func TestBuiltinTemplatesInvariants(t *testing.T) {
	tpls := Default().Templates()
	require.NotEmpty(t, tpls)

	for _, tpl := range tpls {
		t.Run(tpl.Key, func(t *testing.T) {
			assert.Len(t, tpl.SlotMap, tpl.Capacity)
			for i, p := range tpl.SlotMap {
				assert.True(t, in01(p.X) && in01(p.Y), "slot %d out of range: %+v", i, p)
			}
			assert.Equal(t, tpl.Key, tpl.TemplateKey)
			if len(tpl.Order) > 0 {
				assert.True(t, isPermutation(tpl.Order, tpl.Capacity))
			}
			assert.True(t, isPermutation(FillOrder(tpl.Geometry), tpl.Capacity))
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := Default()

	tpl, ok := reg.Lookup("rect6_tall")
	require.True(t, ok)
	assert.Equal(t, ShapeRect, tpl.Shape)
	assert.Equal(t, 6, tpl.Capacity)

	_, ok = reg.Lookup("nope")
	assert.False(t, ok)

	// rect6_tall is registered before rect6_classic.
	tpl, ok = reg.ResolveByShapeAndCapacity(ShapeRect, 6)
	require.True(t, ok)
	assert.Equal(t, "rect6_tall", tpl.Key)

	_, ok = reg.ResolveByShapeAndCapacity(ShapeHeart, 7)
	assert.False(t, ok)
}

func TestRegistryResolvePrefersTemplateKey(t *testing.T) {
	reg := Default()

	tpl, ok := reg.Resolve(Geometry{TemplateKey: "rect6_classic", Shape: ShapeRect, Capacity: 6})
	require.True(t, ok)
	assert.Equal(t, "rect6_classic", tpl.Key)

	tpl, ok = reg.Resolve(Geometry{TemplateKey: "gone", Shape: ShapeRound, Capacity: 8})
	require.True(t, ok)
	assert.Equal(t, "round8_ring", tpl.Key)
}

func TestLookupReturnsCopy(t *testing.T) {
	reg := Default()
	tpl, _ := reg.Lookup("rect12_square")
	tpl.SlotMap[0].X = 0.99
	tpl.Inner.X = 0.5

	again, _ := reg.Lookup("rect12_square")
	assert.InDelta(t, 0.20, again.SlotMap[0].X, 1e-12)
	assert.InDelta(t, 0.125, again.Inner.X, 1e-12)
}

func TestLoadRegistryRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "slot count mismatch",
			src: `[[template]]
key = "a"
shape = "rect"
capacity = 2
slots = [{ x = 0.1, y = 0.1 }]`,
			want: "1 slots for capacity 2",
		},
		{
			name: "coordinate out of range",
			src: `[[template]]
key = "a"
shape = "rect"
capacity = 1
slots = [{ x = 1.2, y = 0.1 }]`,
			want: "outside [0,1]",
		},
		{
			name: "order not a permutation",
			src: `[[template]]
key = "a"
shape = "rect"
capacity = 2
slots = [{ x = 0.1, y = 0.1 }, { x = 0.2, y = 0.1 }]
order = [0, 0]`,
			want: "not a permutation",
		},
		{
			name: "unknown shape",
			src: `[[template]]
key = "a"
shape = "star"
capacity = 1
slots = [{ x = 0.1, y = 0.1 }]`,
			want: "unknown shape",
		},
		{
			name: "duplicate key",
			src: `[[template]]
key = "a"
shape = "rect"
capacity = 1
slots = [{ x = 0.1, y = 0.1 }]

[[template]]
key = "a"
shape = "rect"
capacity = 1
slots = [{ x = 0.1, y = 0.1 }]`,
			want: "duplicate key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRegistryRingGenerator(t *testing.T) {
	src := `[[template]]
key = "ring4"
shape = "circle"
capacity = 4
ring = { radius = 0.5 }`
	reg, err := LoadRegistry(strings.NewReader(src))
	require.NoError(t, err)

	tpl, ok := reg.Lookup("ring4")
	require.True(t, ok)
	assert.Equal(t, ShapeRound, tpl.Shape)
	require.Len(t, tpl.SlotMap, 4)
	assert.InDelta(t, 0.5, tpl.SlotMap[0].X, 1e-9)
	assert.InDelta(t, 0.0, tpl.SlotMap[0].Y, 1e-9)
	assert.InDelta(t, 1.0, tpl.SlotMap[1].X, 1e-9)
}

func TestFillOrderRoundNineClockwiseFromTop(t *testing.T) {
	g := ringGeometry(9, 0.38)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, FillOrder(g))
}

func TestFillOrderRoundEightStartsAtTop(t *testing.T) {
	// Same ring, rotated storage order: the slot at the top is index 3.
	pts := ringGeometry(8, 0.4).SlotMap
	rotated := append(append([]Point{}, pts[5:]...), pts[:5]...)
	g := Geometry{Shape: ShapeRound, Capacity: 8, SlotMap: rotated}

	assert.Equal(t, []int{3, 4, 5, 6, 7, 0, 1, 2}, FillOrder(g))
}

func TestFillOrderTallRectangleTopToBottom(t *testing.T) {
	tpl, ok := Default().Lookup("rect6_tall")
	require.True(t, ok)
	g := tpl.Geometry
	g.Order = nil
	require.True(t, g.Tall())

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, FillOrder(g))
}

func TestFillOrderRowMajor(t *testing.T) {
	g := Geometry{
		Shape:    ShapeRect,
		Capacity: 4,
		SlotMap: []Point{
			{X: 0.8, Y: 0.7},
			{X: 0.2, Y: 0.7},
			{X: 0.8, Y: 0.3},
			{X: 0.2, Y: 0.3},
		},
	}
	assert.Equal(t, []int{3, 2, 1, 0}, FillOrder(g))

	g.Shape = ShapeHeart
	assert.Equal(t, []int{3, 2, 1, 0}, FillOrder(g))
}

func TestFillOrderStableOnTies(t *testing.T) {
	g := Geometry{
		Shape:    ShapeRect,
		Capacity: 3,
		SlotMap:  []Point{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 0.1, Y: 0.5}},
	}
	assert.Equal(t, []int{2, 0, 1}, FillOrder(g))
}

func TestFillOrderExplicitFiltersInvalid(t *testing.T) {
	g := Geometry{
		Shape:    ShapeRect,
		Capacity: 4,
		SlotMap:  make([]Point, 4),
		Order:    []int{3, -1, 1, 7, 1, 0},
	}
	assert.Equal(t, []int{3, 1, 0}, FillOrder(g))
}

func TestFillOrderIdempotent(t *testing.T) {
	for _, tpl := range Default().Templates() {
		g := tpl.Geometry
		g.Order = nil
		assert.Equal(t, FillOrder(g), FillOrder(g), tpl.Key)
	}
}

func TestFillRule(t *testing.T) {
	assert.Equal(t, "explicit", FillRule(Geometry{Order: []int{0}}))
	assert.Equal(t, "clockwise", FillRule(Geometry{Shape: ShapeRound, Capacity: 12}))
	assert.Equal(t, "row-major", FillRule(Geometry{Shape: ShapeHeart, Capacity: 5}))
}

func TestProjectMapsThroughInner(t *testing.T) {
	p := NewProjector(nil)
	g := Geometry{
		Shape:    ShapeRect,
		Capacity: 2,
		SlotMap:  []Point{{X: 0.5, Y: 0.5}, {X: 1.5, Y: -2}},
		Inner:    &Rect{X: 0.1, Y: 0.2, W: 0.8, H: 0.6},
		SlotSize: 17,
	}

	pos := p.Project(g, 0)
	assert.InDelta(t, 50, pos.Left, 1e-9)
	assert.InDelta(t, 50, pos.Top, 1e-9)
	assert.Equal(t, 17.0, pos.Size)

	// Clamped to the inner rectangle's top-right corner.
	pos = p.Project(g, 1)
	assert.InDelta(t, 90, pos.Left, 1e-9)
	assert.InDelta(t, 20, pos.Top, 1e-9)
}

func TestProjectStaysInsideContainer(t *testing.T) {
	p := NewProjector(Default())
	for _, tpl := range Default().Templates() {
		for _, pos := range p.Board(tpl.Geometry) {
			assert.True(t, pos.Left >= 0 && pos.Left <= 100, "%s slot %d left %v", tpl.Key, pos.Slot, pos.Left)
			assert.True(t, pos.Top >= 0 && pos.Top <= 100, "%s slot %d top %v", tpl.Key, pos.Slot, pos.Top)
		}
	}
}

func TestProjectMissingSlotUsesCentre(t *testing.T) {
	p := NewProjector(nil)
	pos := p.Project(Geometry{Capacity: 1}, 5)
	assert.Equal(t, 5, pos.Slot)
	assert.InDelta(t, 50, pos.Left, 1e-9)
	assert.InDelta(t, 50, pos.Top, 1e-9)
}

func TestProjectNaNClamped(t *testing.T) {
	p := NewProjector(nil)
	pos := p.Project(Geometry{Capacity: 1, SlotMap: []Point{{X: math.NaN(), Y: 0.5}}}, 0)
	assert.Equal(t, 0.0, pos.Left)
}

func TestResolveInnerFallbackChain(t *testing.T) {
	p := NewProjector(Default())

	own := &Rect{X: 0.2, Y: 0.2, W: 0.5, H: 0.5}
	assert.Equal(t, *own, p.ResolveInner(Geometry{Shape: ShapeRound, Capacity: 8, Inner: own}))

	// No inner on the box: the round8_ring template supplies it.
	assert.Equal(t, Rect{X: 0.10, Y: 0.10, W: 0.80, H: 0.80}, p.ResolveInner(Geometry{Shape: ShapeRound, Capacity: 8}))

	// Degenerate inner is ignored.
	assert.Equal(t, Rect{X: 0.10, Y: 0.10, W: 0.80, H: 0.80},
		p.ResolveInner(Geometry{Shape: ShapeRound, Capacity: 8, Inner: &Rect{W: 0, H: 1}}))

	assert.Equal(t, UnitRect, p.ResolveInner(Geometry{Shape: ShapeHeart, Capacity: 3}))
}

func TestResolveSlotSizeFallbackChain(t *testing.T) {
	p := NewProjector(Default())

	assert.Equal(t, 21.0, p.ResolveSlotSize(Geometry{SlotSize: 21, Shape: ShapeHeart, Capacity: 12}))
	assert.Equal(t, 13.0, p.ResolveSlotSize(Geometry{Shape: ShapeHeart, Capacity: 12}))

	tiers := []struct {
		capacity int
		want     float64
	}{
		{4, 18}, {6, 18}, {7, 16}, {8, 16}, {10, 14}, {12, 14}, {24, 12},
	}
	for _, tt := range tiers {
		got := p.ResolveSlotSize(Geometry{Shape: ShapeHeart, Capacity: tt.capacity, TemplateKey: "missing"})
		if tt.capacity == 12 {
			// heart12 exists in the registry.
			assert.Equal(t, 13.0, got)
			continue
		}
		assert.Equal(t, tt.want, got, "capacity %d", tt.capacity)
	}
}

func TestParseShape(t *testing.T) {
	for in, want := range map[string]Shape{
		"rect": ShapeRect, "Rectangle": ShapeRect, " round ": ShapeRound, "circle": ShapeRound, "HEART": ShapeHeart,
	} {
		got, ok := ParseShape(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseShape("star")
	assert.False(t, ok)

	var s Shape
	require.NoError(t, s.UnmarshalText([]byte("Star")))
	assert.Equal(t, Shape("star"), s)
	assert.False(t, s.Valid())
}
