package model

import "time"

// Placement assigns one catalog item to one slot of a box.
type Placement struct {
	Slot   int    `json:"slot" bson:"slot"`
	ItemID string `json:"item_id" bson:"item_id"`
}

// OrderStatus is fixed when the order is created.
type OrderStatus string

const (
	OrderDraft OrderStatus = "draft"
	OrderPaid  OrderStatus = "paid"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool { return s == OrderDraft || s == OrderPaid }

// Order is the snapshot written at checkout. It is never updated afterwards.
type Order struct {
	ID         string      `json:"id" bson:"_id"`
	BoxID      string      `json:"box_id" bson:"box_id"`
	BoxName    string      `json:"box_name" bson:"box_name"`
	Placements []Placement `json:"placements" bson:"placements"`
	Extras     []string    `json:"extras" bson:"extras"`
	Total      int64       `json:"total" bson:"total"`
	Status     OrderStatus `json:"status" bson:"status"`
	CreatedAt  time.Time   `json:"created_at" bson:"created_at"`
}
