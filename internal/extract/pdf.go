package extract

import (
	"bytes"
	"compress/zlib"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// pdfExtractor does minimal content-stream parsing of PDF files: it locates
// each object's stream, inflates FlateDecode-compressed streams with
// compress/zlib, and pulls literal strings out of Tj/TJ text-showing
// operators. This covers the common case of simple text-based PDFs; no
// layout analysis, font decoding, or embedded-image OCR is attempted; a
// scanned/image-only PDF falls through to the ocr extractor.
type pdfExtractor struct {
	minTextLength int
}

func newPDFExtractor(cfg map[string]interface{}) *pdfExtractor {
	return &pdfExtractor{minTextLength: intOr(cfg["min_text_length"], 50)}
}

func (p *pdfExtractor) Name() string { return "pdf" }

func (p *pdfExtractor) CanExtract(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

var streamRe = regexp.MustCompile(`(?s)<<(.*?)>>\s*stream\r?\n(.*?)\r?\nendstream`)
var tjRe = regexp.MustCompile(`\((?:[^()\\]|\\.)*\)\s*Tj`)
var tjArrayRe = regexp.MustCompile(`(?s)\[(.*?)\]\s*TJ`)
var tjStringRe = regexp.MustCompile(`\((?:[^()\\]|\\.)*\)`)

func (p *pdfExtractor) Extract(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Error: err.Error()}
	}

	var b strings.Builder
	pages := 0
	for _, m := range streamRe.FindAllSubmatch(data, -1) {
		dict := string(m[1])
		body := m[2]
		if strings.Contains(dict, "/Flate") {
			if inflated, err := inflate(body); err == nil {
				body = inflated
			} else {
				continue
			}
		}
		if text := extractContentStreamText(body); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
			pages++
		}
	}

	if b.Len() == 0 {
		return Result{Error: "no extractable text (likely scanned/image PDF)"}
	}

	return Result{
		Text:            b.String(),
		Success:         true,
		ConfidenceScore: 0.75,
		Metadata:        map[string]interface{}{"format": "pdf", "streams_with_text": pages},
	}
}

func (p *pdfExtractor) ValidateResult(r Result) bool {
	return r.Success && len(strings.TrimSpace(r.Text)) >= p.minTextLength
}

func inflate(body []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// extractContentStreamText pulls the literal-string operands of Tj and TJ
// text-showing operators out of one decoded content stream.
func extractContentStreamText(stream []byte) string {
	var b strings.Builder
	for _, m := range tjRe.FindAll(stream, -1) {
		s := strings.TrimSuffix(strings.TrimSpace(string(m)), "Tj")
		b.WriteString(unescapePDFString(s))
		b.WriteString(" ")
	}
	for _, m := range tjArrayRe.FindAllSubmatch(stream, -1) {
		for _, s := range tjStringRe.FindAll(m[1], -1) {
			b.WriteString(unescapePDFString(string(s)))
		}
		b.WriteString(" ")
	}
	return b.String()
}

func unescapePDFString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case '(', ')', '\\':
				out.WriteByte(s[i])
			default:
				if s[i] >= '0' && s[i] <= '7' {
					// octal escape, up to 3 digits
					j := i
					for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
						j++
					}
					if n, err := strconv.ParseInt(s[i:j], 8, 32); err == nil {
						out.WriteByte(byte(n))
					}
					i = j - 1
				} else {
					out.WriteByte(s[i])
				}
			}
			continue
		}
		out.WriteByte(s[i])
	}
	return out.String()
}
