package pg

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"whisper-scribe/internal/app/repository"
)

// PostgresDB is the shared-server history store.
type PostgresDB struct {
	*repository.CommonDB
}

// NewPostgresDB connects with connectionString, verifies the connection and
// ensures the history table exists.
func NewPostgresDB(ctx context.Context, connectionString string) (*PostgresDB, error) {
	db, err := sql.Open(repository.DriverPostgres, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return newPostgresDB(ctx, db)
}

func newPostgresDB(ctx context.Context, db *sql.DB) (*PostgresDB, error) {
	pdb := &PostgresDB{CommonDB: repository.NewCommonDB(db, repository.DriverPostgres)}
	if err := pdb.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return pdb, nil
}
