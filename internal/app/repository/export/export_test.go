package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"whisper-scribe/internal/app/model"
)

func TestToExcel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "history.xlsx")
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := ToExcel([]model.Transcription{
		{ID: 7, JobID: "job-7", FileName: "lecture.mp3", Status: "completed", DurationSeconds: 2400, CostUSD: 0.24, Chunks: 2, Words: 4200, CreatedAt: created},
		{ID: 8, JobID: "job-8", FileName: "broken.wav", Status: "failed", ErrorMessage: "audio could not be decoded", CreatedAt: created},
	}, out)
	require.NoError(t, err)

	file, err := xlsx.OpenFile(out)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "History", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "File", sheet.Rows[0].Cells[2].Value)
	assert.Equal(t, "7", sheet.Rows[1].Cells[0].Value)
	assert.Equal(t, "lecture.mp3", sheet.Rows[1].Cells[2].Value)
	assert.Equal(t, "4200", sheet.Rows[1].Cells[7].Value)
	assert.Equal(t, "2024-05-01T12:00:00Z", sheet.Rows[1].Cells[9].Value)
	assert.Equal(t, "audio could not be decoded", sheet.Rows[2].Cells[8].Value)
}

func TestToExcelEmpty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, ToExcel(nil, out))
	assert.FileExists(t, out)
}

func TestToExcelBadPath(t *testing.T) {
	err := ToExcel(nil, filepath.Join(t.TempDir(), "missing", "dir", "out.xlsx"))
	assert.Error(t, err)
}
