package model

import "time"

// Item is a single confection in the catalog.
type Item struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Color     string    `json:"color,omitempty" bson:"color,omitempty"`
	Price     int64     `json:"price" bson:"price"`
	ImageURL  string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	InStock   bool      `json:"in_stock" bson:"in_stock"`
	Popular   bool      `json:"popular" bson:"popular"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ItemFilter narrows catalog listings.
type ItemFilter string

const (
	FilterAll     ItemFilter = "all"
	FilterPopular ItemFilter = "popular"
	FilterInStock ItemFilter = "in_stock"
)

// ParseItemFilter accepts the filter names used by the catalog page. Empty
// input means all items.
func ParseItemFilter(s string) (ItemFilter, bool) {
	switch s {
	case "", "all":
		return FilterAll, true
	case "popular":
		return FilterPopular, true
	case "in_stock", "inStock", "instock":
		return FilterInStock, true
	}
	return "", false
}

// Match reports whether it passes the filter.
func (f ItemFilter) Match(it Item) bool {
	switch f {
	case FilterPopular:
		return it.Popular
	case FilterInStock:
		return it.InStock
	}
	return true
}
