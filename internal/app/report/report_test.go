package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// charWidth measures every rune as 10 points.
func charWidth(s string) float64 {
	return float64(len([]rune(s))) * 10
}

var pageObject = regexp.MustCompile(`/Type /Page\b`)

func TestToTextRoundTrip(t *testing.T) {
	for _, text := range []string{"", "hello", "línea uno\nlínea dos", "日本語のテキスト", "  padded  "} {
		assert.Equal(t, text, string(ToText(text)))
	}
}

func TestWrapLines(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		maxWidth float64
		expected []string
	}{
		{
			name:     "fits on one row",
			text:     "one two three",
			maxWidth: 500,
			expected: []string{"one two three"},
		},
		{
			name:     "greedy wrap",
			text:     "aaa bbb ccc ddd",
			maxWidth: 70,
			expected: []string{"aaa bbb", "ccc ddd"},
		},
		{
			name:     "exact fit is kept",
			text:     "aaa bbb ccc",
			maxWidth: 70,
			expected: []string{"aaa bbb", "ccc"},
		},
		{
			name:     "overlong word gets its own row",
			text:     "a supercalifragilistic b",
			maxWidth: 50,
			expected: []string{"a", "supercalifragilistic", "b"},
		},
		{
			name:     "newlines start new rows and blank lines vanish",
			text:     "first\n\n   \nsecond  line",
			maxWidth: 500,
			expected: []string{"first", "second line"},
		},
		{
			name:     "empty",
			text:     "",
			maxWidth: 500,
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, WrapLines(tc.text, charWidth, tc.maxWidth))
		})
	}
}

func TestWrapLinesKeepsEveryWord(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur ", 40)
	rows := WrapLines(text, charWidth, 120)

	for _, row := range rows {
		if strings.Contains(row, " ") {
			assert.LessOrEqual(t, charWidth(row), 120.0, row)
		}
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(rows, " ")))
}

func TestPaginate(t *testing.T) {
	rows := make([]string, 100)
	for i := range rows {
		rows[i] = fmt.Sprintf("row %d", i)
	}

	pages := Paginate(rows)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 47)
	assert.Len(t, pages[1], 47)
	assert.Len(t, pages[2], 6)
	assert.Equal(t, "row 47", pages[1][0])

	assert.Len(t, Paginate(nil), 1)
}

func TestToPDF(t *testing.T) {
	data, err := ToPDF("Hello world. This is a short transcript.")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Len(t, pageObject.FindAll(data, -1), 1)
}

func TestToPDFDeterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)

	first, err := ToPDF(text)
	require.NoError(t, err)
	second, err := ToPDF(text)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second), "same text must render to the same bytes")

	// Neither date may follow the wall clock, otherwise renders a second
	// apart differ.
	assert.Contains(t, string(first), "/CreationDate (D:20240101000000)")
	assert.Contains(t, string(first), "/ModDate (D:20240101000000)")
}

func TestToPDFMultiPage(t *testing.T) {
	lines := make([]string, 120)
	for i := range lines {
		lines[i] = fmt.Sprintf("Line %d of a long transcript", i)
	}

	data, err := ToPDF(strings.Join(lines, "\n"))
	require.NoError(t, err)
	assert.Len(t, pageObject.FindAll(data, -1), 3)
}

func TestToPDFNonLatinText(t *testing.T) {
	data, err := ToPDF("Transcripción en español, ñandú y café. 中文")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestToPDFEmpty(t *testing.T) {
	data, err := ToPDF("")
	require.NoError(t, err)
	assert.Len(t, pageObject.FindAll(data, -1), 1)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats("one two  three\nfour", 120, 0.012)
	assert.Equal(t, 4, stats.Words)
	assert.InDelta(t, 2.0, stats.DurationMinutes, 1e-9)
	assert.InDelta(t, 2.0, stats.WordsPerMinute, 1e-9)
	assert.InDelta(t, 0.012, stats.CostUSD, 1e-12)

	zero := ComputeStats("some words here", 0, 0)
	assert.Equal(t, 3, zero.Words)
	assert.Zero(t, zero.WordsPerMinute)

	summary := stats.Summary()
	assert.Contains(t, summary, "Words: 4")
	assert.Contains(t, summary, "Duration: 2.0 min")
	assert.Contains(t, summary, "$0.0120")
}
