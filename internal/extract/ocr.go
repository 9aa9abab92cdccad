package extract

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ocrExtractor shells out to the tesseract binary for scanned documents
// and images. No pure-Go OCR engine exists in this module's dependency
// set, so tesseract must be on PATH for this extractor to be usable.
type ocrExtractor struct {
	minTextLength int
	language      string
	timeout       time.Duration
}

func newOCRExtractor(cfg map[string]interface{}) *ocrExtractor {
	return &ocrExtractor{
		minTextLength: intOr(cfg["min_text_length"], 20),
		language:      stringOr(cfg["language"], "eng"),
		timeout:       30 * time.Second,
	}
}

func (o *ocrExtractor) Name() string { return "ocr" }

func (o *ocrExtractor) CanExtract(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".tiff", ".bmp", ".pdf":
		return true
	default:
		return false
	}
}

func (o *ocrExtractor) Extract(path string) Result {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return Result{Error: "tesseract binary not found on PATH"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	// tesseract writes to stdout when output base is "stdout".
	cmd := exec.CommandContext(ctx, "tesseract", path, "stdout", "-l", o.language)
	out, err := cmd.Output()
	if err != nil {
		return Result{Error: "tesseract: " + err.Error()}
	}

	return Result{
		Text:            string(out),
		Success:         true,
		ConfidenceScore: 0.6,
		Metadata:        map[string]interface{}{"format": "ocr", "language": o.language},
	}
}

func (o *ocrExtractor) ValidateResult(r Result) bool {
	return r.Success && len(strings.TrimSpace(r.Text)) >= o.minTextLength
}
