package repository

import (
	"context"
	"database/sql"
)

// MySQLStore groups the table repositories behind the Store interface.
type MySQLStore struct {
	*BoxRepo
	*ItemRepo
	*OrderRepo
	*OperatorRepo
	db *sql.DB
}

var _ Store = (*MySQLStore)(nil)

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{
		BoxRepo:      NewBoxRepo(db),
		ItemRepo:     NewItemRepo(db),
		OrderRepo:    NewOrderRepo(db),
		OperatorRepo: NewOperatorRepo(db),
		db:           db,
	}
}

func (s *MySQLStore) Close(context.Context) error { return s.db.Close() }
