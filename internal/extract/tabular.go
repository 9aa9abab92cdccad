package extract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// tabularExtractor handles delimiter-separated tabular data (.csv, .tsv),
// rendering rows in a configurable output form (markdown, csv, or json)
// with optional summary statistics appended. XLSX/ODS spreadsheets are out
// of scope: no Go library in this module's dependency set parses them, and
// shelling out has no equivalent tool the way OCR has tesseract.
type tabularExtractor struct {
	minRows      int
	outputFormat string
	includeStats bool
	maxRows      int
}

func newTabularExtractor(cfg map[string]interface{}) *tabularExtractor {
	return &tabularExtractor{
		minRows:      intOr(cfg["min_rows"], 1),
		outputFormat: stringOr(cfg["output_format"], "markdown"),
		includeStats: boolOr(cfg["include_stats"], true),
		maxRows:      intOr(cfg["max_rows_display"], 0),
	}
}

func (t *tabularExtractor) Name() string { return "tabular" }

func (t *tabularExtractor) CanExtract(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return true
	default:
		return false
	}
}

func (t *tabularExtractor) Extract(path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(f)
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1

	allRows, err := r.ReadAll()
	if err != nil {
		return Result{Error: err.Error()}
	}
	if len(allRows) == 0 {
		return Result{Error: "empty table"}
	}

	header := allRows[0]
	rows := allRows[1:]
	display := rows
	if t.maxRows > 0 && len(display) > t.maxRows {
		display = display[:t.maxRows]
	}

	var table string
	switch t.outputFormat {
	case "json":
		table = renderJSONRecords(header, display)
	case "csv":
		table = renderCSV(header, display)
	default: // "markdown"
		table = renderMarkdownTable(header, display)
	}

	text := table
	if t.includeStats && len(rows) > 0 {
		text += "\n\n### Statistics\n\n" + tableStats(header, rows)
	}

	info, _ := os.Stat(path)
	var fileSize int64
	if info != nil {
		fileSize = info.Size()
	}

	return Result{
		Text:            text,
		Success:         true,
		ConfidenceScore: 0.95,
		Metadata: map[string]interface{}{
			"file_name":    filepath.Base(path),
			"file_size":    fileSize,
			"format":       t.outputFormat,
			"rows":         len(rows),
			"columns":      len(header),
			"column_names": header,
		},
	}
}

func (t *tabularExtractor) ValidateResult(r Result) bool {
	if !r.Success {
		return false
	}
	rows, _ := r.Metadata["rows"].(int)
	return rows >= t.minRows
}

func renderMarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

func renderCSV(header []string, rows [][]string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write(header)
	w.WriteAll(rows)
	w.Flush()
	return b.String()
}

// renderJSONRecords renders one object per data row, keyed by header name.
// Ragged rows shorter than the header leave the trailing keys out.
func renderJSONRecords(header []string, rows [][]string) string {
	records := make([]map[string]string, len(rows))
	for i, row := range rows {
		rec := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(row) {
				rec[col] = row[j]
			}
		}
		records[i] = rec
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}

// tableStats summarizes a table: row/column counts, per-column missing
// (empty-cell) counts with percentages, and how many columns are fully
// numeric.
func tableStats(header []string, rows [][]string) string {
	lines := []string{
		fmt.Sprintf("- Rows: %d", len(rows)),
		fmt.Sprintf("- Columns: %d", len(header)),
	}

	missing := make([]int, len(header))
	numeric := make([]bool, len(header))
	for j := range numeric {
		numeric[j] = true
	}
	for _, row := range rows {
		for j := range header {
			if j >= len(row) || strings.TrimSpace(row[j]) == "" {
				missing[j]++
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64); err != nil {
				numeric[j] = false
			}
		}
	}

	var missingLines []string
	for j, count := range missing {
		if count > 0 {
			pct := 100 * float64(count) / float64(len(rows))
			missingLines = append(missingLines, fmt.Sprintf("  - %s: %d (%.2f%%)", header[j], count, pct))
		}
	}
	if len(missingLines) > 0 {
		lines = append(lines, "- Missing values:")
		lines = append(lines, missingLines...)
	}

	numericCount := 0
	for j := range numeric {
		if numeric[j] && missing[j] < len(rows) {
			numericCount++
		}
	}
	if numericCount > 0 {
		lines = append(lines, fmt.Sprintf("- Numeric columns: %d", numericCount))
	}

	return strings.Join(lines, "\n")
}
