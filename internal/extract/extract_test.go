package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragpipe/internal/config"
)

func TestTextExtractor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world, this is plain text"), 0o644))

	ex := newTextExtractor(nil)
	require.True(t, ex.CanExtract(path))
	r := ex.Extract(path)
	assert.True(t, r.Success)
	assert.True(t, ex.ValidateResult(r))
}

func TestTabularExtractor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3,4\n"), 0o644))

	ex := newTabularExtractor(nil)
	r := ex.Extract(path)
	require.True(t, r.Success)
	assert.Contains(t, r.Text, "| a | b |")
	assert.Equal(t, 2, r.Metadata["rows"])
}

func TestTextExtractorReportsUTF8Encoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	content := "plain utf-8 text with an accent: café"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := newTextExtractor(nil).Extract(path)
	require.True(t, r.Success)
	assert.Equal(t, "utf-8", r.Metadata["encoding"])
	assert.Equal(t, len(content), r.Metadata["text_length"])
}

func TestTextExtractorDecodesLatin1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.txt")
	// "résumé complet du document traité" in ISO-8859-1: é is the single
	// byte 0xE9, which is invalid UTF-8.
	content := []byte("r\xe9sum\xe9 complet du document trait\xe9")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	r := newTextExtractor(nil).Extract(path)
	require.True(t, r.Success)
	assert.Equal(t, "latin-1", r.Metadata["encoding"])
	assert.Contains(t, r.Text, "résumé")
}

func TestTextExtractorStripsUTF8BOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.txt")
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, "text behind a byte order mark"...), 0o644))

	r := newTextExtractor(nil).Extract(path)
	require.True(t, r.Success)
	assert.Equal(t, "utf-8", r.Metadata["encoding"])
	assert.False(t, strings.HasPrefix(r.Text, "\xef\xbb\xbf"))
}

func TestTextExtractorGradesConfidenceByLength(t *testing.T) {
	dir := t.TempDir()
	ex := newTextExtractor(nil)

	long := filepath.Join(dir, "long.txt")
	require.NoError(t, os.WriteFile(long, []byte(strings.Repeat("word ", 30)), 0o644))
	assert.Equal(t, 1.0, ex.Extract(long).ConfidenceScore)

	short := filepath.Join(dir, "short.txt")
	require.NoError(t, os.WriteFile(short, []byte("twenty characters ok"), 0o644))
	assert.Equal(t, 0.8, ex.Extract(short).ConfidenceScore)
}

func TestTextExtractorFallsBackToReplacement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.txt")
	require.NoError(t, os.WriteFile(path, []byte("broken \xff\xfe bytes in here"), 0o644))

	// Restricting the chain to strict UTF-8 forces the replacement path.
	ex := newTextExtractor(map[string]interface{}{
		"fallback_encodings": []interface{}{"utf-8"},
	})
	r := ex.Extract(path)
	require.True(t, r.Success)
	assert.Equal(t, "utf-8 (replacement)", r.Metadata["encoding"])
	assert.Equal(t, 0.5, r.ConfidenceScore)
	assert.Contains(t, r.Text, "�")
}

func TestTabularExtractorCSVOutputFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	ex := newTabularExtractor(map[string]interface{}{
		"output_format": "csv",
		"include_stats": false,
	})
	r := ex.Extract(path)
	require.True(t, r.Success)
	assert.Equal(t, "a,b\n1,2\n", r.Text)
}

func TestTabularExtractorJSONOutputFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,score\nalice,10\n"), 0o644))

	ex := newTabularExtractor(map[string]interface{}{
		"output_format": "json",
		"include_stats": false,
	})
	r := ex.Extract(path)
	require.True(t, r.Success)
	assert.Contains(t, r.Text, `"name": "alice"`)
	assert.Contains(t, r.Text, `"score": "10"`)
}

func TestTabularExtractorAppendsStatistics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,score\nalice,10\nbob,\n"), 0o644))

	r := newTabularExtractor(nil).Extract(path)
	require.True(t, r.Success)
	assert.Contains(t, r.Text, "### Statistics")
	assert.Contains(t, r.Text, "- Rows: 2")
	assert.Contains(t, r.Text, "score: 1 (50.00%)")
	assert.Contains(t, r.Text, "- Numeric columns: 1")
}

func TestTabularExtractorCapsDisplayedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n2\n3\n"), 0o644))

	ex := newTabularExtractor(map[string]interface{}{
		"max_rows_display": 1,
		"include_stats":    false,
	})
	r := ex.Extract(path)
	require.True(t, r.Success)
	assert.Contains(t, r.Text, "| 1 |")
	assert.NotContains(t, r.Text, "| 3 |")
	assert.Equal(t, 3, r.Metadata["rows"], "metadata counts every row, not just displayed ones")
}

func TestManagerReturnsFirstValidatedExtractor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("some reasonably long plain text content"), 0o644))

	m, err := NewManager(config.ExtractionConfig{Profile: "speed"})
	require.NoError(t, err)

	r, name, err := m.ExtractWithFallback(path)
	require.NoError(t, err)
	assert.Equal(t, "text", name)
	assert.True(t, r.Success)
}

func TestManagerFailsWhenNothingValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	m, err := NewManager(config.ExtractionConfig{Profile: "speed"})
	require.NoError(t, err)

	_, _, err = m.ExtractWithFallback(path)
	assert.Error(t, err)
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	in := "line one  \r\n\r\n\r\n\r\nline two\t\t here"
	out := CleanText(in)
	assert.Equal(t, "line one \n\nline two here", out)
}
