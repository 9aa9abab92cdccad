package extract

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// defaultEncodings is the ordered decode chain tried for plain-text files.
// ISO-8859-1 accepts every byte sequence, so with the default list a
// readable file always decodes; the replacement path below only fires when
// an operator configures a stricter list.
var defaultEncodings = []string{"utf-8", "latin-1", "cp1252", "iso-8859-1"}

// textExtractor handles plain-text-shaped files (.txt, .md, .xml, .svg, ...)
// by reading the file directly with no structural parsing, auto-detecting
// the encoding by trying an ordered list.
type textExtractor struct {
	minTextLength int
	encodings     []string
}

func newTextExtractor(cfg map[string]interface{}) *textExtractor {
	return &textExtractor{
		minTextLength: intOr(cfg["min_text_length"], 10),
		encodings:     stringsOr(cfg["fallback_encodings"], defaultEncodings),
	}
}

func (t *textExtractor) Name() string { return "text" }

func (t *textExtractor) CanExtract(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return !isBinary(data)
}

func (t *textExtractor) Extract(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Error: err.Error()}
	}

	var text, encodingUsed string
	for _, enc := range t.encodings {
		if decoded, ok := decodeAs(enc, data); ok {
			text, encodingUsed = decoded, enc
			break
		}
	}
	replaced := encodingUsed == ""
	if replaced {
		// No configured encoding accepted the bytes: decode as UTF-8 with
		// replacement runes rather than dropping the file.
		text = strings.ToValidUTF8(string(data), string(utf8.RuneError))
		encodingUsed = "utf-8 (replacement)"
	}

	// Direct reads are high-confidence, graded down for very short text.
	confidence := 0.5
	switch {
	case replaced:
	case len(text) > 100:
		confidence = 1.0
	case len(text) > 10:
		confidence = 0.8
	}

	return Result{
		Text:            text,
		Success:         true,
		ConfidenceScore: confidence,
		Metadata: map[string]interface{}{
			"file_name":   filepath.Base(path),
			"file_size":   len(data),
			"format":      strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			"encoding":    encodingUsed,
			"text_length": len(text),
		},
	}
}

func (t *textExtractor) ValidateResult(r Result) bool {
	return r.Success && len(strings.TrimSpace(r.Text)) >= t.minTextLength
}

// decodeAs decodes data as the named encoding, reporting ok=false when the
// bytes are not valid in that encoding (or the name is unrecognized, which
// skips to the next candidate the way an unknown codec would).
func decodeAs(name string, data []byte) (string, bool) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	case "latin-1", "latin1", "iso-8859-1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		return string(out), true
	case "cp1252", "windows-1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		// Windows-1252 leaves a few byte values undefined; the decoder maps
		// them to U+FFFD instead of erroring, so treat that as a mismatch.
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			return "", false
		}
		return string(out), true
	default:
		return "", false
	}
}

// isBinary reports whether data looks like a binary blob rather than text:
// a NUL byte, or a content-type sniff that isn't text/* or application/json.
func isBinary(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "text/") || ct == "application/json" {
		return false
	}
	return true
}

func intOr(v interface{}, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

func boolOr(v interface{}, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func stringOr(v interface{}, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func stringsOr(v interface{}, def []string) []string {
	items, ok := v.([]interface{})
	if !ok {
		return def
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
