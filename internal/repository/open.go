package repository

import (
	"context"
	"fmt"

	"github.com/iliyamo/box-builder/internal/config"
	"github.com/iliyamo/box-builder/internal/database"
)

// Open connects the catalog driver selected by cfg.Driver and prepares its
// schema or indexes.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil

	case config.DriverMongo:
		client, err := database.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		st := NewMongoStore(client, cfg.MongoDB)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return st, nil

	case config.DriverMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return NewMySQLStore(db), nil
	}
	return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
}
