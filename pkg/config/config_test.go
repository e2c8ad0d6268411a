package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// viper and the loaded config are package globals, so each test starts
// from a clean slate.
func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	globalConfig = Config{}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
	return dir
}

func TestLoad_AppliesDefaults(t *testing.T) {
	resetConfig(t)
	dir := writeConfig(t, `
database:
  host: localhost
  port: 5432
`)
	require.NoError(t, Load(dir))

	cfg := GetConfig()
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 0.7, cfg.Moderation.Threshold)
	assert.Equal(t, 100, cfg.Training.MinExamples)
	assert.Equal(t, 2, cfg.Training.NegativeRatio)
	assert.Equal(t, 1000, cfg.Training.MaxNegatives)
	assert.Equal(t, 10000, cfg.Training.VocabSize)
	assert.Equal(t, 100, cfg.Training.MaxLen)
	assert.Equal(t, 32, cfg.Training.EmbeddingDim)
	assert.Equal(t, 16, cfg.Training.HiddenSize)
	assert.Equal(t, 10, cfg.Training.Epochs)
	assert.Equal(t, 32, cfg.Training.BatchSize)
	assert.Equal(t, 0.05, cfg.Training.LearningRate)
	assert.Equal(t, "artifacts", cfg.Artifacts.Dir)
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	resetConfig(t)
	dir := writeConfig(t, `
moderation:
  threshold: 0.5
  denylist:
    financial_scheme:
      - crypto
      - forex
training:
  min_examples: 250
  epochs: 30
artifacts:
  dir: /var/lib/scamguard/models
`)
	require.NoError(t, Load(dir))

	cfg := GetConfig()
	assert.Equal(t, 0.5, cfg.Moderation.Threshold)
	assert.Equal(t, []string{"crypto", "forex"}, cfg.Moderation.Denylist["financial_scheme"])
	assert.Equal(t, 250, cfg.Training.MinExamples)
	assert.Equal(t, 30, cfg.Training.Epochs)
	assert.Equal(t, "/var/lib/scamguard/models", cfg.Artifacts.Dir)
}
