package repository

import (
	"context"

	"github.com/iliyamo/box-builder/internal/model"
)

// Catalog persists boxes, items and orders. Create methods assign the id
// and timestamps and return the stored entity. Delete methods return the
// removed entity so callers can clean up its image.
type Catalog interface {
	ListBoxes(ctx context.Context, activeOnly bool) ([]model.Box, error)
	GetBox(ctx context.Context, id string) (model.Box, error)
	CreateBox(ctx context.Context, b model.Box) (model.Box, error)
	UpdateBox(ctx context.Context, b model.Box) (model.Box, error)
	DeleteBox(ctx context.Context, id string) (model.Box, error)

	ListItems(ctx context.Context, f model.ItemFilter) ([]model.Item, error)
	GetItem(ctx context.Context, id string) (model.Item, error)
	CreateItem(ctx context.Context, it model.Item) (model.Item, error)
	UpdateItem(ctx context.Context, it model.Item) (model.Item, error)
	DeleteItem(ctx context.Context, id string) (model.Item, error)

	// CreateOrder is append-only; orders are never updated.
	CreateOrder(ctx context.Context, o model.Order) (model.Order, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
}

// OperatorStore holds back-office accounts.
type OperatorStore interface {
	GetOperator(ctx context.Context, id string) (model.Operator, error)
	GetOperatorByUsername(ctx context.Context, username string) (model.Operator, error)
	CreateOperator(ctx context.Context, op model.Operator) (model.Operator, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// Store is what the server needs from a backend.
type Store interface {
	Catalog
	OperatorStore
	Close(ctx context.Context) error
}

// ItemIndex keys items by id, the shape the price lookup wants.
func ItemIndex(items []model.Item) map[string]model.Item {
	out := make(map[string]model.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}
