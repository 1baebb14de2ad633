package export

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx"

	"whisper-scribe/internal/app/model"
)

var header = []string{
	"ID", "Job", "File", "Status", "Duration (min)", "Cost (USD)", "Chunks", "Words", "Error", "Created",
}

// ToExcel writes the history entries to a single-sheet workbook at
// outputFilePath.
func ToExcel(transcriptions []model.Transcription, outputFilePath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("History")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, title := range header {
		headerRow.AddCell().Value = title
	}

	for _, t := range transcriptions {
		row := sheet.AddRow()
		row.AddCell().SetInt64(t.ID)
		row.AddCell().Value = t.JobID
		row.AddCell().Value = t.FileName
		row.AddCell().Value = t.Status
		row.AddCell().SetFloatWithFormat(t.DurationSeconds/60, "0.00")
		row.AddCell().SetFloatWithFormat(t.CostUSD, "0.0000")
		row.AddCell().SetInt(t.Chunks)
		row.AddCell().SetInt(t.Words)
		row.AddCell().Value = t.ErrorMessage
		row.AddCell().Value = t.CreatedAt.UTC().Format(time.RFC3339)
	}

	if err := file.Save(outputFilePath); err != nil {
		return fmt.Errorf("failed to save %s: %w", outputFilePath, err)
	}
	return nil
}
