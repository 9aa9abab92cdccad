package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// officeExtractor reads OOXML documents (.docx, .pptx) by unzipping the
// package and pulling text runs out of the relevant part's XML, since no
// third-party Office document library is available in this module's
// dependency set (justified in DESIGN.md).
type officeExtractor struct {
	minTextLength int
}

func newOfficeExtractor(cfg map[string]interface{}) *officeExtractor {
	return &officeExtractor{minTextLength: intOr(cfg["min_text_length"], 20)}
}

func (o *officeExtractor) Name() string { return "office" }

func (o *officeExtractor) CanExtract(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".docm", ".pptx", ".pptm":
		return true
	default:
		return false
	}
}

func (o *officeExtractor) Extract(path string) Result {
	ext := strings.ToLower(filepath.Ext(path))
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer zr.Close()

	var text string
	switch ext {
	case ".docx", ".docm":
		text, err = extractDocx(zr)
	case ".pptx", ".pptm":
		text, err = extractPptx(zr)
	}
	if err != nil {
		return Result{Error: err.Error()}
	}

	return Result{
		Text:            strings.TrimSpace(text),
		Success:         true,
		ConfidenceScore: 0.85,
		Metadata:        map[string]interface{}{"format": "ooxml", "kind": ext},
	}
}

func (o *officeExtractor) ValidateResult(r Result) bool {
	return r.Success && len(strings.TrimSpace(r.Text)) >= o.minTextLength
}

func extractDocx(zr *zip.ReadCloser) (string, error) {
	f := findZipFile(zr, "word/document.xml")
	if f == nil {
		return "", fmt.Errorf("office: word/document.xml not found")
	}
	return extractRunText(f, "t")
}

func extractPptx(zr *zip.ReadCloser) (string, error) {
	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].Name < slides[j].Name })

	var b strings.Builder
	for i, f := range slides {
		t, err := extractRunText(f, "t")
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "## Slide %d\n\n%s\n\n", i+1, t)
	}
	return b.String(), nil
}

func findZipFile(zr *zip.ReadCloser, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// extractRunText walks the XML token stream of an OOXML part and joins the
// character data of every element whose local name is localName (e.g. "t"
// for both w:t in WordprocessingML and a:t in DrawingML), inserting a
// newline whenever a paragraph-ish element ("p") closes.
func extractRunText(f *zip.File, localName string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var b strings.Builder
	inRun := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return b.String(), nil
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == localName {
				inRun = true
			}
		case xml.EndElement:
			if t.Name.Local == localName {
				inRun = false
			}
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		case xml.CharData:
			if inRun {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
