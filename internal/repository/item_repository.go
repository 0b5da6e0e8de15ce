package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/box-builder/internal/model"
)

// ItemRepo stores confections in the `items` table.
type ItemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

const itemColumns = `id, name, color, price, image_url, in_stock, popular, created_at, updated_at`

func scanItem(s rowScanner) (model.Item, error) {
	var it model.Item
	err := s.Scan(&it.ID, &it.Name, &it.Color, &it.Price, &it.ImageURL, &it.InStock, &it.Popular, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// ListItems applies f in SQL so large catalogs are not filtered in memory.
func (r *ItemRepo) ListItems(ctx context.Context, f model.ItemFilter) ([]model.Item, error) {
	q := `SELECT ` + itemColumns + ` FROM items`
	switch f {
	case model.FilterPopular:
		q += ` WHERE popular = 1`
	case model.FilterInStock:
		q += ` WHERE in_stock = 1`
	}
	q += ` ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, unavailable("list items", err)
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, unavailable("scan item", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list items", err)
	}
	return out, nil
}

func (r *ItemRepo) GetItem(ctx context.Context, id string) (model.Item, error) {
	it, err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrNotFound
		}
		return model.Item{}, unavailable("get item", err)
	}
	return it, nil
}

func (r *ItemRepo) CreateItem(ctx context.Context, it model.Item) (model.Item, error) {
	now := time.Now().UTC().Truncate(time.Second)
	it.ID = uuid.NewString()
	it.CreatedAt, it.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		it.ID, it.Name, it.Color, it.Price, it.ImageURL, it.InStock, it.Popular, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return model.Item{}, unavailable("insert item", err)
	}
	return it, nil
}

func (r *ItemRepo) UpdateItem(ctx context.Context, it model.Item) (model.Item, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET name=?, color=?, price=?, image_url=?, in_stock=?, popular=?, updated_at=? WHERE id=?`,
		it.Name, it.Color, it.Price, it.ImageURL, it.InStock, it.Popular, time.Now().UTC().Truncate(time.Second), it.ID)
	if err != nil {
		return model.Item{}, unavailable("update item", err)
	}
	return r.GetItem(ctx, it.ID)
}

func (r *ItemRepo) DeleteItem(ctx context.Context, id string) (model.Item, error) {
	it, err := r.GetItem(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return model.Item{}, unavailable("delete item", err)
	}
	return it, nil
}
