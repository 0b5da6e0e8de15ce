// Package queue defines the order events exchanged over RabbitMQ and the
// consumer that records them.
package queue

import (
	"time"

	"github.com/iliyamo/box-builder/internal/model"
)

// OrderCreatedQueue is the durable queue order events are published to.
const OrderCreatedQueue = "order.created"

// OrderCreatedEvent is published after an order has been stored. It carries
// item names so consumers never need to query the catalog.
type OrderCreatedEvent struct {
	OrderID    string           `json:"order_id"`
	BoxID      string           `json:"box_id"`
	BoxName    string           `json:"box_name"`
	Status     string           `json:"status"`
	Total      int64            `json:"total"`
	Placements []EventPlacement `json:"placements"`
	CreatedAt  string           `json:"created_at"`
}

type EventPlacement struct {
	Slot     int    `json:"slot"`
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
}

// NewOrderCreatedEvent builds the event for o. Items missing from the index
// are reported with an empty name.
func NewOrderCreatedEvent(o model.Order, items map[string]model.Item) OrderCreatedEvent {
	ps := make([]EventPlacement, len(o.Placements))
	for i, p := range o.Placements {
		ps[i] = EventPlacement{Slot: p.Slot, ItemID: p.ItemID, ItemName: items[p.ItemID].Name}
	}
	return OrderCreatedEvent{
		OrderID:    o.ID,
		BoxID:      o.BoxID,
		BoxName:    o.BoxName,
		Status:     string(o.Status),
		Total:      o.Total,
		Placements: ps,
		CreatedAt:  o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
