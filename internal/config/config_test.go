package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteEnvVarsResolvesSetVariable(t *testing.T) {
	t.Setenv("RAGPIPE_TEST_ENDPOINT", "http://localhost:11434")

	out, err := substituteEnvVars(map[string]interface{}{
		"endpoint": "${RAGPIPE_TEST_ENDPOINT}",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", out.(map[string]interface{})["endpoint"])
}

func TestSubstituteEnvVarsWalksNestedStructures(t *testing.T) {
	t.Setenv("RAGPIPE_TEST_NESTED", "value")

	out, err := substituteEnvVars(map[string]interface{}{
		"providers": []interface{}{
			map[string]interface{}{"api_key": "${RAGPIPE_TEST_NESTED}"},
		},
	})
	require.NoError(t, err)
	providers := out.(map[string]interface{})["providers"].([]interface{})
	assert.Equal(t, "value", providers[0].(map[string]interface{})["api_key"])
}

func TestSubstituteEnvVarsUnsetAPIKeyBecomesPlaceholder(t *testing.T) {
	os.Unsetenv("MISTRAL_API_KEY")

	out, err := substituteEnvVars("${MISTRAL_API_KEY}")
	require.NoError(t, err)
	assert.Equal(t, "MISTRAL_API_KEY_NOT_SET", out)
}

func TestSubstituteEnvVarsUnsetTokenBecomesPlaceholder(t *testing.T) {
	os.Unsetenv("HF_TOKEN")

	out, err := substituteEnvVars("${HF_TOKEN}")
	require.NoError(t, err)
	assert.Equal(t, "HF_TOKEN_NOT_SET", out)
}

func TestSubstituteEnvVarsUnsetOtherVariableFails(t *testing.T) {
	os.Unsetenv("RAGPIPE_TEST_MISSING")

	_, err := substituteEnvVars("${RAGPIPE_TEST_MISSING}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAGPIPE_TEST_MISSING")
}

func TestSubstituteEnvVarsLeavesPartialReferencesAlone(t *testing.T) {
	out, err := substituteEnvVars("prefix ${NOT_A_FULL_MATCH} suffix")
	require.NoError(t, err)
	assert.Equal(t, "prefix ${NOT_A_FULL_MATCH} suffix", out)
}

func writeConfigFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

const minimalGlobal = `
infrastructure:
  providers:
    - name: ollama
      access_method: local
      endpoint: http://localhost:11434
`

func TestLoadMinimalConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "global.yaml", minimalGlobal)

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	require.Len(t, cfg.Infrastructure.Providers, 1)
	assert.Equal(t, "ollama", cfg.Infrastructure.Providers[0].Name)
}

func TestLoadMergesLaterFilesOverEarlier(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "01_global.yaml", minimalGlobal+`
chunking:
  strategy: fixed
`)
	writeConfigFile(t, dir, "02_chunking.yaml", `
chunking:
  strategy: recursive
`)

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "recursive", cfg.Chunking.Strategy)
}

func TestLoadRejectsMissingProviders(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "global.yaml", "chunking:\n  strategy: fixed\n")

	_, err := Load(dir, "")
	require.Error(t, err)
	var cfgErr *Error
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadRejectsInvalidAccessMethod(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "global.yaml", `
infrastructure:
  providers:
    - name: bad
      access_method: carrier_pigeon
`)

	_, err := Load(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_method")
}

func TestLoadRejectsDuplicateProviderNames(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "global.yaml", `
infrastructure:
  providers:
    - name: ollama
      access_method: local
    - name: ollama
      access_method: local
`)

	_, err := Load(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadRejectsUnknownChunkingStrategy(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "global.yaml", minimalGlobal+`
chunking:
  strategy: telepathic
`)

	_, err := Load(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy")
}

func TestLoadResolvesEnvReferenceFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("RAGPIPE_TEST_FILE_KEY=from-file\n"), 0o644))
	writeConfigFile(t, dir, "global.yaml", `
infrastructure:
  providers:
    - name: mistral
      access_method: openai_compatible
      endpoint: https://api.mistral.ai/v1
      api_key: ${RAGPIPE_TEST_FILE_KEY}
`)

	cfg, err := Load(dir, envPath)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Infrastructure.Providers[0].APIKey)
}

func TestStageEnabledDefaultsToTrue(t *testing.T) {
	var p PipelineConfig
	assert.True(t, p.StageEnabled("extraction"))

	p.EnabledStages = map[string]bool{"audit": false}
	assert.False(t, p.StageEnabled("audit"))
	assert.True(t, p.StageEnabled("chunking"))
}
