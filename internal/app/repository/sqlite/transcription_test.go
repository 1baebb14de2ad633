package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-scribe/internal/app/model"
	"whisper-scribe/internal/app/repository"
)

func TestSQLiteDAO_Interface(t *testing.T) {
	var _ repository.TranscriptionDAO = (*SQLiteDB)(nil)
}

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entries := []model.Transcription{
		{JobID: "a", FileName: "first.mp3", Status: "completed", DurationSeconds: 600, CostUSD: 0.06, Chunks: 1, Words: 1500, CreatedAt: base},
		{JobID: "b", FileName: "second.m4a", Status: "cancelled", DurationSeconds: 2400, CostUSD: 0.24, Chunks: 2, CreatedAt: base.Add(time.Minute)},
		{JobID: "c", FileName: "third.wav", Status: "failed", ErrorMessage: "remote transcription failed: status 429", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		id, err := db.Record(ctx, &entries[i])
		require.NoError(t, err)
		assert.Equal(t, id, entries[i].ID)
		assert.Positive(t, id)
	}

	all, err := db.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].JobID, "newest first")
	assert.Equal(t, "a", all[2].JobID)
	assert.Equal(t, "first.mp3", all[2].FileName)
	assert.InDelta(t, 0.06, all[2].CostUSD, 1e-12)
	assert.Equal(t, 1500, all[2].Words)
	assert.Equal(t, "remote transcription failed: status 429", all[0].ErrorMessage)
	assert.True(t, base.Equal(all[2].CreatedAt))

	limited, err := db.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecordSetsCreatedAt(t *testing.T) {
	db := newTestDB(t)

	entry := model.Transcription{JobID: "x", FileName: "memo.m4a", Status: "completed"}
	_, err := db.Record(context.Background(), &entry)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), entry.CreatedAt, time.Minute)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, db.Migrate(context.Background()))
}
