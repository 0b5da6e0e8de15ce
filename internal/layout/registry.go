package layout

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/BurntSushi/toml"
)

//go:embed templates.toml
var builtinTemplates []byte

// Template is a fixed box definition. Templates are authored with the
// product catalog and never change at runtime; boxes copy their geometry.
type Template struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Geometry
}

// ErrTemplateNotFound is returned when no template matches a lookup.
var ErrTemplateNotFound = errors.New("template not found")

// Registry is an ordered, read-only set of templates.
type Registry struct {
	templates []Template
	byKey     map[string]int
}

// templateFile mirrors templates.toml.
type templateFile struct {
	Templates []templateSpec `toml:"template"`
}

type templateSpec struct {
	Key      string    `toml:"key"`
	Label    string    `toml:"label"`
	Shape    Shape     `toml:"shape"`
	Capacity int       `toml:"capacity"`
	SlotSize float64   `toml:"slot_size"`
	Inner    *Rect     `toml:"inner"`
	Slots    []Point   `toml:"slots"`
	Order    []int     `toml:"order"`
	Ring     *ringSpec `toml:"ring"`
}

// ringSpec generates Capacity points evenly spaced on a circle centred in
// the inner rectangle, starting straight up and running clockwise.
type ringSpec struct {
	Radius float64 `toml:"radius"`
}

func (r ringSpec) points(n int) []Point {
	out := make([]Point, n)
	for i := range out {
		angle := float64(i)/float64(n)*2*math.Pi - math.Pi/2
		out[i] = Point{
			X: 0.5 + r.Radius*math.Cos(angle),
			Y: 0.5 + r.Radius*math.Sin(angle),
		}
	}
	return out
}

var defaultRegistry = mustLoadBuiltin()

func mustLoadBuiltin() *Registry {
	reg, err := LoadRegistry(bytes.NewReader(builtinTemplates))
	if err != nil {
		panic(fmt.Sprintf("layout: invalid built-in templates: %v", err))
	}
	return reg
}

// Default returns the registry compiled into the binary.
func Default() *Registry { return defaultRegistry }

// LoadRegistry decodes templates in TOML form and validates them.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var f templateFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	tpls := make([]Template, 0, len(f.Templates))
	for _, s := range f.Templates {
		slots := s.Slots
		if len(slots) == 0 && s.Ring != nil {
			slots = s.Ring.points(s.Capacity)
		}
		tpls = append(tpls, Template{
			Key:   s.Key,
			Label: s.Label,
			Geometry: Geometry{
				Shape:       s.Shape,
				Capacity:    s.Capacity,
				SlotMap:     slots,
				Inner:       s.Inner,
				SlotSize:    s.SlotSize,
				Order:       s.Order,
				TemplateKey: s.Key,
			},
		})
	}
	return NewRegistry(tpls...)
}

// NewRegistry builds a registry from templates in registration order.
func NewRegistry(tpls ...Template) (*Registry, error) {
	reg := &Registry{byKey: make(map[string]int, len(tpls))}
	for _, t := range tpls {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := reg.byKey[t.Key]; dup {
			return nil, fmt.Errorf("template %q: duplicate key", t.Key)
		}
		t.TemplateKey = t.Key
		reg.byKey[t.Key] = len(reg.templates)
		reg.templates = append(reg.templates, t)
	}
	return reg, nil
}

// Validate checks the structural invariants of a template.
func (t Template) Validate() error {
	if t.Key == "" {
		return errors.New("template: empty key")
	}
	if !t.Shape.Valid() {
		return fmt.Errorf("template %q: unknown shape %q", t.Key, t.Shape)
	}
	if t.Capacity <= 0 {
		return fmt.Errorf("template %q: capacity must be positive", t.Key)
	}
	if len(t.SlotMap) != t.Capacity {
		return fmt.Errorf("template %q: %d slots for capacity %d", t.Key, len(t.SlotMap), t.Capacity)
	}
	for i, p := range t.SlotMap {
		if !in01(p.X) || !in01(p.Y) {
			return fmt.Errorf("template %q: slot %d (%g, %g) outside [0,1]", t.Key, i, p.X, p.Y)
		}
	}
	if t.Inner != nil && !t.Inner.within() {
		return fmt.Errorf("template %q: inner rectangle outside the unit square", t.Key)
	}
	if t.SlotSize < 0 {
		return fmt.Errorf("template %q: negative slot size", t.Key)
	}
	if len(t.Order) > 0 {
		if len(t.Order) != t.Capacity {
			return fmt.Errorf("template %q: order has %d entries for capacity %d", t.Key, len(t.Order), t.Capacity)
		}
		seen := make([]bool, t.Capacity)
		for _, i := range t.Order {
			if i < 0 || i >= t.Capacity || seen[i] {
				return fmt.Errorf("template %q: order is not a permutation of [0,%d)", t.Key, t.Capacity)
			}
			seen[i] = true
		}
	}
	return nil
}

// Lookup returns the template registered under key.
func (r *Registry) Lookup(key string) (Template, bool) {
	if r == nil {
		return Template{}, false
	}
	i, ok := r.byKey[key]
	if !ok {
		return Template{}, false
	}
	return r.templates[i].clone(), true
}

// ResolveByShapeAndCapacity returns the first template, in registration
// order, with the given shape and capacity. It serves boxes persisted
// without a template key.
func (r *Registry) ResolveByShapeAndCapacity(shape Shape, capacity int) (Template, bool) {
	if r == nil {
		return Template{}, false
	}
	for _, t := range r.templates {
		if t.Shape == shape && t.Capacity == capacity {
			return t.clone(), true
		}
	}
	return Template{}, false
}

// Resolve finds the template a geometry was built from: by its template
// key first, then by shape and capacity.
func (r *Registry) Resolve(g Geometry) (Template, bool) {
	if g.TemplateKey != "" {
		if t, ok := r.Lookup(g.TemplateKey); ok {
			return t, true
		}
	}
	return r.ResolveByShapeAndCapacity(g.Shape, g.Capacity)
}

// Templates returns every template in registration order.
func (r *Registry) Templates() []Template {
	if r == nil {
		return nil
	}
	out := make([]Template, len(r.templates))
	for i, t := range r.templates {
		out[i] = t.clone()
	}
	return out
}

func (t Template) clone() Template {
	t.Geometry = t.Geometry.Clone()
	return t
}
