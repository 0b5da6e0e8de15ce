package layout

// Position places one slot inside the box container. All values are
// percentages: Left and Top locate the slot centre, Size is the slot
// diameter relative to the container width.
type Position struct {
	Slot int     `json:"slot"`
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
	Size float64 `json:"size"`
}

// Projector maps normalized slot coordinates to container percentages.
// Missing box geometry falls back to the registry template the box was
// built from, then to fixed defaults.
type Projector struct {
	registry *Registry
}

// NewProjector returns a projector backed by reg. A nil registry skips the
// template fallback.
func NewProjector(reg *Registry) *Projector {
	return &Projector{registry: reg}
}

// ResolveInner returns the working rectangle for g: the box's own inner
// rectangle, else the matching template's, else the whole image.
func (p *Projector) ResolveInner(g Geometry) Rect {
	if g.Inner != nil && g.Inner.usable() {
		return *g.Inner
	}
	if t, ok := p.registry.Resolve(g); ok && t.Inner != nil && t.Inner.usable() {
		return *t.Inner
	}
	return UnitRect
}

// ResolveSlotSize returns the slot diameter for g: the box's own positive
// size, else the matching template's, else a capacity tier.
func (p *Projector) ResolveSlotSize(g Geometry) float64 {
	if g.SlotSize > 0 {
		return g.SlotSize
	}
	if t, ok := p.registry.Resolve(g); ok && t.SlotSize > 0 {
		return t.SlotSize
	}
	return tierSlotSize(g.Capacity)
}

func tierSlotSize(capacity int) float64 {
	switch {
	case capacity <= 6:
		return 18
	case capacity <= 8:
		return 16
	case capacity <= 12:
		return 14
	}
	return 12
}

// Project computes the on-screen position of slot. Coordinates are clamped
// to [0,1]; a slot without coordinates sits at the centre of the inner
// rectangle. Project never fails.
func (p *Projector) Project(g Geometry, slot int) Position {
	return project(slot, g, p.ResolveInner(g), p.ResolveSlotSize(g))
}

// Board projects every slot of g in index order.
func (p *Projector) Board(g Geometry) []Position {
	inner, size := p.ResolveInner(g), p.ResolveSlotSize(g)
	out := make([]Position, len(g.SlotMap))
	for i := range g.SlotMap {
		out[i] = project(i, g, inner, size)
	}
	return out
}

func project(slot int, g Geometry, inner Rect, size float64) Position {
	pt := Point{X: 0.5, Y: 0.5}
	if slot >= 0 && slot < len(g.SlotMap) {
		pt = g.SlotMap[slot]
	}
	x, y := clamp01(pt.X), clamp01(pt.Y)
	return Position{
		Slot: slot,
		Left: (inner.X + x*inner.W) * 100,
		Top:  (inner.Y + y*inner.H) * 100,
		Size: size,
	}
}
