package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLLMBoundariesRawJSON(t *testing.T) {
	assert.Equal(t, []int{100, 250}, ParseLLMBoundaries(`{"boundaries": [100, 250]}`))
}

func TestParseLLMBoundariesFencedCodeBlock(t *testing.T) {
	reply := "```json\n{\"boundaries\": [42]}\n```"
	assert.Equal(t, []int{42}, ParseLLMBoundaries(reply))
}

func TestParseLLMBoundariesNarrativeWrapping(t *testing.T) {
	reply := `Sure, here are the boundaries: {"boundaries": [10, 20]} Let me know if you need more.`
	assert.Equal(t, []int{10, 20}, ParseLLMBoundaries(reply))
}

func TestParseLLMBoundariesTrailingComma(t *testing.T) {
	reply := `{"boundaries": [5, 10,],}`
	assert.Equal(t, []int{5, 10}, ParseLLMBoundaries(reply))
}

func TestParseLLMBoundariesLineComment(t *testing.T) {
	reply := "{\"boundaries\": [5, 10] // trailing note\n}"
	assert.Equal(t, []int{5, 10}, ParseLLMBoundaries(reply))
}

func TestParseLLMBoundariesNumericStrings(t *testing.T) {
	assert.Equal(t, []int{7, 14}, ParseLLMBoundaries(`{"boundaries": ["7", "14.0"]}`))
}

func TestParseLLMBoundariesInvalidEntriesSkipped(t *testing.T) {
	assert.Equal(t, []int{5}, ParseLLMBoundaries(`{"boundaries": [5, "not-a-number", null]}`))
}

func TestParseLLMBoundariesNoJSON(t *testing.T) {
	assert.Empty(t, ParseLLMBoundaries("I cannot determine boundaries for this text."))
}
