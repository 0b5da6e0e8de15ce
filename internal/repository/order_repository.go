package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/box-builder/internal/model"
)

// OrderRepo writes checkout snapshots to `orders` and `order_placements`.
// Orders are append-only.
type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateOrder inserts the order row and all of its placements in one
// transaction, so a failed checkout leaves nothing behind.
func (r *OrderRepo) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	o = cloneOrder(o)
	o.ID = uuid.NewString()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	o.CreatedAt = o.CreatedAt.Truncate(time.Second)
	extras, err := json.Marshal(o.Extras)
	if err != nil {
		return model.Order{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, unavailable("begin order tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, box_id, box_name, extras, total, status, created_at) VALUES (?,?,?,?,?,?,?)`,
		o.ID, o.BoxID, o.BoxName, extras, o.Total, string(o.Status), o.CreatedAt); err != nil {
		return model.Order{}, unavailable("insert order", err)
	}
	if err := insertPlacementsTx(ctx, tx, o.ID, o.Placements); err != nil {
		return model.Order{}, unavailable("insert placements", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, unavailable("commit order", err)
	}
	committed = true
	return o, nil
}

// insertPlacementsTx writes every placement with a single multi-row INSERT.
// position keeps the order in which items were added.
func insertPlacementsTx(ctx context.Context, tx *sql.Tx, orderID string, ps []model.Placement) error {
	if len(ps) == 0 {
		return nil
	}
	query := `INSERT INTO order_placements (order_id, position, slot, item_id) VALUES `
	args := make([]any, 0, len(ps)*4)
	for i, p := range ps {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, orderID, i, p.Slot, p.ItemID)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

const orderColumns = `id, box_id, box_name, extras, total, status, created_at`

func scanOrder(s rowScanner) (model.Order, error) {
	var (
		o      model.Order
		extras []byte
		status string
	)
	if err := s.Scan(&o.ID, &o.BoxID, &o.BoxName, &extras, &o.Total, &status, &o.CreatedAt); err != nil {
		return model.Order{}, err
	}
	o.Status = model.OrderStatus(status)
	if len(extras) > 0 {
		if err := json.Unmarshal(extras, &o.Extras); err != nil {
			return model.Order{}, err
		}
	}
	if o.Extras == nil {
		o.Extras = []string{}
	}
	o.Placements = []model.Placement{}
	return o, nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, id string) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, ErrNotFound
		}
		return model.Order{}, unavailable("get order", err)
	}
	byOrder, err := r.placements(ctx, `WHERE order_id = ?`, id)
	if err != nil {
		return model.Order{}, err
	}
	if ps, ok := byOrder[o.ID]; ok {
		o.Placements = ps
	}
	return o, nil
}

// ListOrders returns the newest order first.
func (r *OrderRepo) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, unavailable("list orders", err)
	}
	defer rows.Close()

	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, unavailable("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list orders", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	byOrder, err := r.placements(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		if ps, ok := byOrder[out[i].ID]; ok {
			out[i].Placements = ps
		}
	}
	return out, nil
}

// placements loads order_placements rows grouped by order id.
func (r *OrderRepo) placements(ctx context.Context, where string, args ...any) (map[string][]model.Placement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, slot, item_id FROM order_placements `+where+` ORDER BY order_id, position`, args...)
	if err != nil {
		return nil, unavailable("list placements", err)
	}
	defer rows.Close()

	out := make(map[string][]model.Placement)
	for rows.Next() {
		var (
			orderID string
			p       model.Placement
		)
		if err := rows.Scan(&orderID, &p.Slot, &p.ItemID); err != nil {
			return nil, unavailable("scan placement", err)
		}
		out[orderID] = append(out[orderID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list placements", err)
	}
	return out, nil
}
