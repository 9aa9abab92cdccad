package extract

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"
)

// htmlExtractor converts HTML/XHTML documents to Markdown, preferring the
// extracted main-article content over the full page when structure
// preservation is requested.
type htmlExtractor struct {
	minTextLength     int
	preserveStructure bool
}

func newHTMLExtractor(cfg map[string]interface{}) *htmlExtractor {
	return &htmlExtractor{
		minTextLength:     intOr(cfg["min_text_length"], 20),
		preserveStructure: boolOr(cfg["preserve_structure"], true),
	}
}

func (h *htmlExtractor) Name() string { return "html" }

func (h *htmlExtractor) CanExtract(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	default:
		return false
	}
}

func (h *htmlExtractor) Extract(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Error: err.Error()}
	}
	raw := string(data)

	article := raw
	title := ""
	usedReadable := false
	if h.preserveStructure {
		base, _ := url.Parse("file://" + filepath.ToSlash(path))
		art, rerr := readability.FromReader(strings.NewReader(raw), base)
		if rerr == nil && strings.TrimSpace(art.Content) != "" {
			article = art.Content
			title = strings.TrimSpace(art.Title)
			usedReadable = true
		}
	}

	md, err := htmltomarkdown.ConvertString(article)
	if err != nil {
		return Result{Error: err.Error()}
	}
	text := strings.TrimSpace(md)
	if title != "" && !strings.HasPrefix(text, "# ") {
		text = "# " + title + "\n\n" + text
	}

	return Result{
		Text:            text,
		Success:         true,
		ConfidenceScore: 0.9,
		Metadata: map[string]interface{}{
			"format":        "markdown",
			"used_readable": usedReadable,
			"title":         title,
		},
	}
}

func (h *htmlExtractor) ValidateResult(r Result) bool {
	return r.Success && len(strings.TrimSpace(r.Text)) >= h.minTextLength
}
