package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplateRejectsMissingPlaceholder(t *testing.T) {
	_, err := NewTemplate("boundary", "Analyze this document.", []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{text}")
}

func TestTemplateRenderSubstitutesDeclaredPlaceholders(t *testing.T) {
	tmpl, err := NewTemplate("boundary", "Analyze: {text} at {timestamp}", []string{"text", "timestamp"})
	require.NoError(t, err)

	out := tmpl.Render(map[string]string{"text": "hello", "timestamp": "now", "extra": "ignored"})
	assert.Equal(t, "Analyze: hello at now", out)
}

func TestTemplateRenderLeavesUnsuppliedPlaceholder(t *testing.T) {
	tmpl, err := NewTemplate("boundary", "Analyze: {text}", []string{"text"})
	require.NoError(t, err)

	assert.Equal(t, "Analyze: {text}", tmpl.Render(nil))
}

func TestLoadTemplateSetValidatesEveryEntry(t *testing.T) {
	_, err := LoadTemplateSet(
		map[string]string{"a": "with {x}", "b": "missing"},
		map[string][]string{"a": {"x"}, "b": {"y"}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestTemplateSetGetUnknownName(t *testing.T) {
	ts, err := LoadTemplateSet(map[string]string{"a": "body {x}"}, map[string][]string{"a": {"x"}})
	require.NoError(t, err)

	_, err = ts.Get("a")
	assert.NoError(t, err)
	_, err = ts.Get("nope")
	assert.Error(t, err)
}
