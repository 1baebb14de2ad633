package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"whisper-scribe/internal/app/repository"
)

// SQLiteDB is the file-backed history store.
type SQLiteDB struct {
	*repository.CommonDB
}

// NewSQLiteDB opens (creating if needed) the database at dbFilePath and
// ensures the history table exists.
func NewSQLiteDB(ctx context.Context, dbFilePath string) (*SQLiteDB, error) {
	db, err := sql.Open(repository.DriverSQLite, fmt.Sprintf("file:%s?_busy_timeout=5000&mode=rwc", dbFilePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; the server records jobs from several goroutines.
	db.SetMaxOpenConns(1)

	sdb := &SQLiteDB{CommonDB: repository.NewCommonDB(db, repository.DriverSQLite)}
	if err := sdb.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sdb, nil
}
