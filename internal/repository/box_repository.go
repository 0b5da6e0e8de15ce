package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
)

// BoxRepo stores boxes in the `boxes` table. Slot geometry lives in JSON
// columns so a box row always carries the full template copy.
type BoxRepo struct {
	db *sql.DB
}

func NewBoxRepo(db *sql.DB) *BoxRepo { return &BoxRepo{db: db} }

const boxColumns = `id, name, price, image_url, active, shape, capacity, slot_map, inner_rect, slot_size, fill_order, template_key, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBox(s rowScanner) (model.Box, error) {
	var (
		b                     model.Box
		shape                 string
		slotMap, inner, order []byte
	)
	err := s.Scan(&b.ID, &b.Name, &b.Price, &b.ImageURL, &b.Active, &shape, &b.Capacity,
		&slotMap, &inner, &b.SlotSize, &order, &b.TemplateKey, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Box{}, err
	}
	_ = b.Shape.UnmarshalText([]byte(shape))
	if err := json.Unmarshal(slotMap, &b.SlotMap); err != nil {
		return model.Box{}, fmt.Errorf("box %s slot_map: %w", b.ID, err)
	}
	// NULL columns scan to nil slices and leave the fields empty.
	if len(inner) > 0 {
		if err := json.Unmarshal(inner, &b.Inner); err != nil {
			return model.Box{}, fmt.Errorf("box %s inner_rect: %w", b.ID, err)
		}
	}
	if len(order) > 0 {
		if err := json.Unmarshal(order, &b.Order); err != nil {
			return model.Box{}, fmt.Errorf("box %s fill_order: %w", b.ID, err)
		}
	}
	return b, nil
}

// geometryArgs encodes the JSON columns of b.
func geometryArgs(b model.Box) (slotMap []byte, inner, order any, err error) {
	pts := b.SlotMap
	if pts == nil {
		pts = []layout.Point{}
	}
	if slotMap, err = json.Marshal(pts); err != nil {
		return nil, nil, nil, err
	}
	if b.Inner != nil {
		raw, err := json.Marshal(b.Inner)
		if err != nil {
			return nil, nil, nil, err
		}
		inner = raw
	}
	if len(b.Order) > 0 {
		raw, err := json.Marshal(b.Order)
		if err != nil {
			return nil, nil, nil, err
		}
		order = raw
	}
	return slotMap, inner, order, nil
}

// ListBoxes returns boxes oldest first. activeOnly hides boxes the operator
// switched off.
func (r *BoxRepo) ListBoxes(ctx context.Context, activeOnly bool) ([]model.Box, error) {
	q := `SELECT ` + boxColumns + ` FROM boxes`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, unavailable("list boxes", err)
	}
	defer rows.Close()

	out := []model.Box{}
	for rows.Next() {
		b, err := scanBox(rows)
		if err != nil {
			return nil, unavailable("scan box", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list boxes", err)
	}
	return out, nil
}

func (r *BoxRepo) GetBox(ctx context.Context, id string) (model.Box, error) {
	b, err := scanBox(r.db.QueryRowContext(ctx, `SELECT `+boxColumns+` FROM boxes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Box{}, ErrNotFound
		}
		return model.Box{}, unavailable("get box", err)
	}
	return b, nil
}

func (r *BoxRepo) CreateBox(ctx context.Context, b model.Box) (model.Box, error) {
	slotMap, inner, order, err := geometryArgs(b)
	if err != nil {
		return model.Box{}, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO boxes (`+boxColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.Name, b.Price, b.ImageURL, b.Active, string(b.Shape), b.Capacity,
		slotMap, inner, b.SlotSize, order, b.TemplateKey, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return model.Box{}, unavailable("insert box", err)
	}
	return b, nil
}

// UpdateBox overwrites every column but created_at.
func (r *BoxRepo) UpdateBox(ctx context.Context, b model.Box) (model.Box, error) {
	slotMap, inner, order, err := geometryArgs(b)
	if err != nil {
		return model.Box{}, err
	}
	b.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err = r.db.ExecContext(ctx,
		`UPDATE boxes SET name=?, price=?, image_url=?, active=?, shape=?, capacity=?, slot_map=?, inner_rect=?,
		        slot_size=?, fill_order=?, template_key=?, updated_at=? WHERE id=?`,
		b.Name, b.Price, b.ImageURL, b.Active, string(b.Shape), b.Capacity, slotMap, inner,
		b.SlotSize, order, b.TemplateKey, b.UpdatedAt, b.ID)
	if err != nil {
		return model.Box{}, unavailable("update box", err)
	}
	// MySQL reports 0 affected rows for an unchanged row, so existence is
	// checked by reading the row back.
	return r.GetBox(ctx, b.ID)
}

func (r *BoxRepo) DeleteBox(ctx context.Context, id string) (model.Box, error) {
	b, err := r.GetBox(ctx, id)
	if err != nil {
		return model.Box{}, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM boxes WHERE id = ?`, id); err != nil {
		return model.Box{}, unavailable("delete box", err)
	}
	return b, nil
}
