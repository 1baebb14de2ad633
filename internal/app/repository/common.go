package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"whisper-scribe/internal/app/model"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// CommonDB implements TranscriptionDAO for any database/sql driver that
// understands RETURNING, differing only in placeholder syntax and DDL.
type CommonDB struct {
	db           *sql.DB
	driverName   string
	placeholders PlaceholderFunc
}

// PlaceholderFunc generates parameter placeholders for different SQL dialects
type PlaceholderFunc func(n int) string

// NewCommonDB creates a new CommonDB instance
func NewCommonDB(db *sql.DB, driverName string) *CommonDB {
	var placeholders PlaceholderFunc

	switch driverName {
	case DriverPostgres:
		placeholders = func(n int) string { return fmt.Sprintf("$%d", n) }
	default:
		placeholders = func(n int) string { return "?" }
	}

	return &CommonDB{
		db:           db,
		driverName:   driverName,
		placeholders: placeholders,
	}
}

// Migrate creates the history table if it does not exist.
func (c *CommonDB) Migrate(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	timeColumn := "DATETIME"
	if c.driverName == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
		timeColumn = "TIMESTAMPTZ"
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transcriptions (
		id %s,
		job_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		status TEXT NOT NULL,
		duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		cost_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
		chunks INTEGER NOT NULL DEFAULT 0,
		words INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		created_at %s NOT NULL
	)`, idColumn, timeColumn)

	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table failed: %w", err)
	}
	return nil
}

// Record inserts t and returns its ID. A zero CreatedAt is set to now.
func (c *CommonDB) Record(ctx context.Context, t *model.Transcription) (int64, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	params := make([]string, 9)
	for i := range params {
		params[i] = c.placeholders(i + 1)
	}

	query := fmt.Sprintf(
		`INSERT INTO transcriptions (
			job_id, file_name, status, duration_seconds, cost_usd,
			chunks, words, error_message, created_at
		) VALUES (%s) RETURNING id`,
		strings.Join(params, ", "),
	)

	var id int64
	err := c.db.QueryRowContext(ctx, query,
		t.JobID, t.FileName, t.Status, t.DurationSeconds, t.CostUSD,
		t.Chunks, t.Words, t.ErrorMessage, t.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert failed: %w", err)
	}

	t.ID = id
	return id, nil
}

// List returns history entries, newest first.
func (c *CommonDB) List(ctx context.Context, limit int) ([]model.Transcription, error) {
	query := `SELECT id, job_id, file_name, status, duration_seconds, cost_usd,
		        chunks, words, error_message, created_at
		 FROM transcriptions
		 ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT " + c.placeholders(1)
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var transcriptions []model.Transcription
	for rows.Next() {
		var t model.Transcription
		err := rows.Scan(
			&t.ID,
			&t.JobID,
			&t.FileName,
			&t.Status,
			&t.DurationSeconds,
			&t.CostUSD,
			&t.Chunks,
			&t.Words,
			&t.ErrorMessage,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		transcriptions = append(transcriptions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return transcriptions, nil
}

// Close closes the database connection
func (c *CommonDB) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying database connection
func (c *CommonDB) DB() *sql.DB {
	return c.db
}

var _ TranscriptionDAO = (*CommonDB)(nil)
