package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/box-builder/internal/model"
)

// MemoryStore keeps the whole catalog in process memory. Listings come back
// in insertion order. Data is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	boxes     map[string]model.Box
	boxIDs    []string
	items     map[string]model.Item
	itemIDs   []string
	orders    map[string]model.Order
	orderIDs  []string
	operators map[string]model.Operator
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		boxes:     make(map[string]model.Box),
		items:     make(map[string]model.Item),
		orders:    make(map[string]model.Order),
		operators: make(map[string]model.Operator),
		now:       time.Now,
	}
}

func (m *MemoryStore) Close(context.Context) error { return nil }

func (m *MemoryStore) ListBoxes(ctx context.Context, activeOnly bool) ([]model.Box, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Box, 0, len(m.boxIDs))
	for _, id := range m.boxIDs {
		b := m.boxes[id]
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, b.Clone())
	}
	return out, nil
}

func (m *MemoryStore) GetBox(ctx context.Context, id string) (model.Box, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boxes[id]
	if !ok {
		return model.Box{}, ErrNotFound
	}
	return b.Clone(), nil
}

func (m *MemoryStore) CreateBox(ctx context.Context, b model.Box) (model.Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	b = b.Clone()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now
	m.boxes[b.ID] = b
	m.boxIDs = append(m.boxIDs, b.ID)
	return b.Clone(), nil
}

func (m *MemoryStore) UpdateBox(ctx context.Context, b model.Box) (model.Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.boxes[b.ID]
	if !ok {
		return model.Box{}, ErrNotFound
	}
	b = b.Clone()
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = m.now().UTC()
	m.boxes[b.ID] = b
	return b.Clone(), nil
}

func (m *MemoryStore) DeleteBox(ctx context.Context, id string) (model.Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return model.Box{}, ErrNotFound
	}
	delete(m.boxes, id)
	m.boxIDs = slices.DeleteFunc(m.boxIDs, func(s string) bool { return s == id })
	return b, nil
}

func (m *MemoryStore) ListItems(ctx context.Context, f model.ItemFilter) ([]model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Item, 0, len(m.itemIDs))
	for _, id := range m.itemIDs {
		if it := m.items[id]; f.Match(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetItem(ctx context.Context, id string) (model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return model.Item{}, ErrNotFound
	}
	return it, nil
}

func (m *MemoryStore) CreateItem(ctx context.Context, it model.Item) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	it.ID = uuid.NewString()
	it.CreatedAt, it.UpdatedAt = now, now
	m.items[it.ID] = it
	m.itemIDs = append(m.itemIDs, it.ID)
	return it, nil
}

func (m *MemoryStore) UpdateItem(ctx context.Context, it model.Item) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[it.ID]
	if !ok {
		return model.Item{}, ErrNotFound
	}
	it.CreatedAt = cur.CreatedAt
	it.UpdatedAt = m.now().UTC()
	m.items[it.ID] = it
	return it, nil
}

func (m *MemoryStore) DeleteItem(ctx context.Context, id string) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return model.Item{}, ErrNotFound
	}
	delete(m.items, id)
	m.itemIDs = slices.DeleteFunc(m.itemIDs, func(s string) bool { return s == id })
	return it, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o = cloneOrder(o)
	o.ID = uuid.NewString()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = m.now().UTC()
	}
	m.orders[o.ID] = o
	m.orderIDs = append(m.orderIDs, o.ID)
	return cloneOrder(o), nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, ErrNotFound
	}
	return cloneOrder(o), nil
}

// ListOrders returns the newest order first.
func (m *MemoryStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Order, 0, len(m.orderIDs))
	for i := len(m.orderIDs) - 1; i >= 0; i-- {
		out = append(out, cloneOrder(m.orders[m.orderIDs[i]]))
	}
	return out, nil
}

func (m *MemoryStore) GetOperator(ctx context.Context, id string) (model.Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, ok := m.operators[id]
	if !ok {
		return model.Operator{}, ErrNotFound
	}
	return op, nil
}

func (m *MemoryStore) GetOperatorByUsername(ctx context.Context, username string) (model.Operator, error) {
	username = normalizeUsername(username)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, op := range m.operators {
		if op.Username == username {
			return op, nil
		}
	}
	return model.Operator{}, ErrNotFound
}

func (m *MemoryStore) CreateOperator(ctx context.Context, op model.Operator) (model.Operator, error) {
	op.Username = normalizeUsername(op.Username)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.operators {
		if cur.Username == op.Username {
			return model.Operator{}, ErrConflict
		}
	}
	now := m.now().UTC()
	op.ID = uuid.NewString()
	op.CreatedAt, op.UpdatedAt = now, now
	m.operators[op.ID] = op
	return op, nil
}

func (m *MemoryStore) UpdatePassword(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.operators[id]
	if !ok {
		return ErrNotFound
	}
	op.PasswordHash = hash
	op.UpdatedAt = m.now().UTC()
	m.operators[id] = op
	return nil
}

func cloneOrder(o model.Order) model.Order {
	o.Placements = slices.Clone(o.Placements)
	o.Extras = slices.Clone(o.Extras)
	if o.Extras == nil {
		o.Extras = []string{}
	}
	if o.Placements == nil {
		o.Placements = []model.Placement{}
	}
	return o
}

func normalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
