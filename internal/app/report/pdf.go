package report

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	apperrors "whisper-scribe/internal/app/errors"
)

// Page geometry in points. Y positions are measured from the bottom edge of
// the page; fpdf measures from the top.
const (
	pageHeight   = 792.0 // US Letter
	leftMargin   = 50.0
	startY       = 750.0
	bottomLimit  = 50.0
	lineHeight   = 15.0
	maxLineWidth = 500.0
	fontFamily   = "Helvetica"
	fontSize     = 12.0
)

// documentDate is stamped on every document so identical text renders to
// identical bytes.
var documentDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// WrapLines splits text into rows no wider than maxWidth, as measured by
// width. Each input line is wrapped on its own; words are separated by single
// spaces and runs of whitespace collapse. A word wider than maxWidth gets a
// row to itself. Lines with no words produce no rows.
func WrapLines(text string, width func(string) float64, maxWidth float64) []string {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		current := ""
		for _, word := range strings.Fields(line) {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if width(candidate) > maxWidth {
				if current != "" {
					rows = append(rows, current)
				}
				current = word
				continue
			}
			current = candidate
		}
		if current != "" {
			rows = append(rows, current)
		}
	}
	return rows
}

// ToPDF renders text as a Letter-sized PDF in Helvetica 12pt with a greedy
// word wrap. Output is deterministic for a given input.
func ToPDF(text string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Transcription", true)
	pdf.SetFont(fontFamily, "", fontSize)
	pdf.AddPage()

	// Core fonts are cp1252; characters outside it are replaced rather than
	// garbled.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width := func(s string) float64 { return pdf.GetStringWidth(tr(s)) }

	for i, page := range Paginate(WrapLines(text, width, maxLineWidth)) {
		if i > 0 {
			pdf.AddPage()
		}
		y := startY
		for _, row := range page {
			pdf.Text(leftMargin, pageHeight-y, tr(row))
			y -= lineHeight
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.Wrap(err, "failed to render pdf")
	}
	return buf.Bytes(), nil
}

// Paginate groups rows into pages. Rows are placed top-down from startY in
// lineHeight steps and a new page begins once the next row would fall below
// bottomLimit. An empty document is one blank page.
func Paginate(rows []string) [][]string {
	pages := [][]string{nil}
	y := startY
	for _, row := range rows {
		if y < bottomLimit {
			pages = append(pages, nil)
			y = startY
		}
		pages[len(pages)-1] = append(pages[len(pages)-1], row)
		y -= lineHeight
	}
	return pages
}
