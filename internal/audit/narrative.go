package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SaveSummary persists rec's narrative summary to outputDir in every format
// listed in formats ("json", "txt", "markdown"). An unrecognized format
// falls back to json rather than silently dropping the summary.
func SaveSummary(rec Record, outputDir string, formats []string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("audit: creating summaries directory: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	for _, format := range formats {
		switch format {
		case "txt":
			if err := saveTXT(rec, filepath.Join(outputDir, "audit_summary_"+stamp+".txt")); err != nil {
				return err
			}
		case "markdown", "md":
			if err := saveMarkdown(rec, filepath.Join(outputDir, "audit_summary_"+stamp+".md")); err != nil {
				return err
			}
		default:
			if err := saveJSON(rec, filepath.Join(outputDir, "audit_summary_"+stamp+".json")); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveJSON(rec Record, path string) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("audit: marshaling summary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func saveTXT(rec Record, path string) error {
	var b strings.Builder
	sep := strings.Repeat("=", 70)
	b.WriteString(sep + "\n")
	b.WriteString("AUDIT SUMMARY\n")
	b.WriteString(sep + "\n\n")
	fmt.Fprintf(&b, "Date: %s\n", rec.Timestamp)
	fmt.Fprintf(&b, "Operation: %s\n", rec.Operation)
	fmt.Fprintf(&b, "Documents processed: %d\n", rec.DocumentsProcessed)
	fmt.Fprintf(&b, "Chunks created: %d\n\n", rec.ChunksCreated)
	if len(rec.FilesProcessed) > 0 {
		b.WriteString("Files processed:\n")
		for _, f := range rec.FilesProcessed {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
		b.WriteString("\n")
	}
	b.WriteString("Summary:\n")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	if rec.LLMSummary != "" {
		b.WriteString(rec.LLMSummary + "\n")
	} else {
		b.WriteString("N/A\n")
	}
	b.WriteString(sep + "\n")
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func saveMarkdown(rec Record, path string) error {
	var b strings.Builder
	b.WriteString("# Audit Summary\n\n")
	b.WriteString("## Metadata\n\n")
	fmt.Fprintf(&b, "- **Date**: %s\n", rec.Timestamp)
	fmt.Fprintf(&b, "- **Operation**: `%s`\n", rec.Operation)
	fmt.Fprintf(&b, "- **Documents processed**: %d\n", rec.DocumentsProcessed)
	fmt.Fprintf(&b, "- **Chunks created**: %d\n\n", rec.ChunksCreated)
	if len(rec.FilesProcessed) > 0 {
		b.WriteString("### Files processed\n\n")
		for _, f := range rec.FilesProcessed {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Summary\n\n")
	if rec.LLMSummary != "" {
		b.WriteString(rec.LLMSummary + "\n\n")
	} else {
		b.WriteString("*No summary available*\n\n")
	}
	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated automatically on %s*\n", time.Now().UTC().Format("2006-01-02 15:04:05"))
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
