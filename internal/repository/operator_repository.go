package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/box-builder/internal/model"
)

// OperatorRepo mirrors the `operators` table.
type OperatorRepo struct {
	db *sql.DB
}

func NewOperatorRepo(db *sql.DB) *OperatorRepo { return &OperatorRepo{db: db} }

const operatorColumns = `id, username, password_hash, role, created_at, updated_at`

func scanOperator(s rowScanner) (model.Operator, error) {
	var op model.Operator
	err := s.Scan(&op.ID, &op.Username, &op.PasswordHash, &op.Role, &op.CreatedAt, &op.UpdatedAt)
	return op, err
}

func (r *OperatorRepo) GetOperator(ctx context.Context, id string) (model.Operator, error) {
	return r.getOne(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = ? LIMIT 1`, id)
}

// GetOperatorByUsername looks the account up by its normalized username.
func (r *OperatorRepo) GetOperatorByUsername(ctx context.Context, username string) (model.Operator, error) {
	return r.getOne(ctx, `SELECT `+operatorColumns+` FROM operators WHERE username = ? LIMIT 1`, normalizeUsername(username))
}

func (r *OperatorRepo) getOne(ctx context.Context, q string, arg any) (model.Operator, error) {
	op, err := scanOperator(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Operator{}, ErrNotFound
		}
		return model.Operator{}, unavailable("get operator", err)
	}
	return op, nil
}

// CreateOperator inserts op. A taken username yields ErrConflict.
func (r *OperatorRepo) CreateOperator(ctx context.Context, op model.Operator) (model.Operator, error) {
	now := time.Now().UTC().Truncate(time.Second)
	op.ID = uuid.NewString()
	op.Username = normalizeUsername(op.Username)
	op.CreatedAt, op.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO operators (`+operatorColumns+`) VALUES (?,?,?,?,?,?)`,
		op.ID, op.Username, op.PasswordHash, op.Role, op.CreatedAt, op.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Operator{}, ErrConflict
		}
		return model.Operator{}, unavailable("insert operator", err)
	}
	return op, nil
}

func (r *OperatorRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE operators SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return unavailable("update password", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKey reports MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
