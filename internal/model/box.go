package model

import (
	"time"

	"github.com/iliyamo/box-builder/internal/layout"
)

// Box is a priced, imaged instance of a template. The embedded geometry is
// always copied wholesale from a template so slot data stays consistent.
type Box struct {
	ID              string    `json:"id" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	Price           int64     `json:"price" bson:"price"`
	ImageURL        string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Active          bool      `json:"active" bson:"active"`
	layout.Geometry `bson:",inline"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// BoxFields are the operator-editable attributes of a box.
type BoxFields struct {
	Name     string
	Price    int64
	ImageURL string
	Active   bool
}

// NewBoxFromTemplate materialises a box from tpl. ID and timestamps are left
// for the store to assign.
func NewBoxFromTemplate(tpl layout.Template, f BoxFields) Box {
	return Box{
		Name:     f.Name,
		Price:    f.Price,
		ImageURL: f.ImageURL,
		Active:   f.Active,
		Geometry: tpl.Geometry.Clone(),
	}
}

// Rebuild replaces the geometry of b with a fresh copy of tpl, keeping the
// operator fields.
func (b Box) Rebuild(tpl layout.Template) Box {
	b.Geometry = tpl.Geometry.Clone()
	return b
}

// Clone returns a deep copy of b.
func (b Box) Clone() Box {
	b.Geometry = b.Geometry.Clone()
	return b
}
