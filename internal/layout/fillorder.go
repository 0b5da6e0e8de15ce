package layout

import (
	"cmp"
	"math"
	"slices"
)

// fillRule selects how the slots of a box are visited.
type fillRule int

const (
	ruleExplicit  fillRule = iota // the box carries its own order
	ruleClockwise                 // sweep from straight up, clockwise
	ruleRowMajor                  // top to bottom, then left to right
)

func (r fillRule) String() string {
	switch r {
	case ruleExplicit:
		return "explicit"
	case ruleClockwise:
		return "clockwise"
	case ruleRowMajor:
		return "row-major"
	}
	return "unknown"
}

// selectRule matches on shape, capacity and tallness. Rings sweep
// clockwise. Tall rectangles, the classic 6 and 12 rectangles and the
// 12-piece heart all fill by rows, which is also the fallback.
func selectRule(g Geometry) fillRule {
	if len(g.Order) > 0 {
		return ruleExplicit
	}
	switch g.Shape {
	case ShapeRound:
		return ruleClockwise
	case ShapeRect:
		if g.Tall() || g.Capacity == 6 || g.Capacity == 12 {
			return ruleRowMajor
		}
	case ShapeHeart:
		if g.Capacity == 12 {
			return ruleRowMajor
		}
	}
	return ruleRowMajor
}

// FillRule names the rule FillOrder applies to g.
func FillRule(g Geometry) string { return selectRule(g).String() }

// FillOrder returns the sequence in which slots of g are filled. The result
// is recomputed on every call and depends only on g. Round boxes sweep
// clockwise from the top at every capacity, not only at 8 and 12.
//
// An explicit order is filtered to indices in [0, capacity); out of range
// and repeated entries are dropped, so a partial override yields a partial
// sequence.
func FillOrder(g Geometry) []int {
	rule := selectRule(g)
	if rule == ruleExplicit {
		return explicitOrder(g.Order, g.Capacity)
	}

	n := g.slotCount()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	switch rule {
	case ruleClockwise:
		angles := make([]float64, n)
		for i := range angles {
			angles[i] = clockwiseAngle(g.SlotMap[i])
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			return cmp.Compare(angles[a], angles[b])
		})
	default:
		slices.SortStableFunc(idx, func(a, b int) int {
			pa, pb := g.SlotMap[a], g.SlotMap[b]
			return cmp.Or(cmp.Compare(pa.Y, pb.Y), cmp.Compare(pa.X, pb.X))
		})
	}
	return idx
}

func explicitOrder(order []int, capacity int) []int {
	if capacity <= 0 {
		return []int{}
	}
	seen := make([]bool, capacity)
	out := make([]int, 0, min(len(order), capacity))
	for _, i := range order {
		if i < 0 || i >= capacity || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

// clockwiseAngle measures p around the centre (0.5, 0.5) with y pointing
// down: straight up is 0 and the angle grows clockwise towards 2π.
func clockwiseAngle(p Point) float64 {
	a := math.Atan2(p.Y-0.5, p.X-0.5) + math.Pi/2
	return math.Mod(a+2*math.Pi, 2*math.Pi)
}
