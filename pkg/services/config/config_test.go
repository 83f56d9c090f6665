package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fee-atlas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("overrides merge onto defaults", func(t *testing.T) {
		path := writeConfig(t, `
mode: hybrid
enabled_detectors: [duplicates, interest]
thresholds:
  similarity_threshold: 0.9
  duplicate_window_days: 14
ai:
  local:
    enabled: true
    model: mistral
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, domain.ModeHybrid, cfg.AnalysisMode())
		assert.Equal(t, []string{"duplicates", "interest"}, cfg.EnabledDetectors)

		th := cfg.DetectionThresholds()
		assert.Equal(t, 0.9, th.SimilarityThreshold)
		assert.Equal(t, 14, th.DuplicateWindowDays)
		// untouched keys keep their defaults
		assert.Equal(t, domain.DefaultThresholds().AMLCashThreshold, th.AMLCashThreshold)
		assert.True(t, th.UseHistoricalBaseline)
	})

	t.Run("empty file keeps all defaults", func(t *testing.T) {
		path := writeConfig(t, "{}\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeAlgorithmic, cfg.AnalysisMode())
		assert.Equal(t, domain.DefaultThresholds(), cfg.DetectionThresholds())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestBuildRouter(t *testing.T) {
	t.Run("no enabled provider disables the AI path", func(t *testing.T) {
		cfg := &Config{}
		router, err := cfg.BuildRouter()
		require.NoError(t, err)
		assert.Nil(t, router)
	})

	t.Run("local provider serves every tier", func(t *testing.T) {
		cfg := &Config{AI: AIConfig{Local: ProviderConfig{Enabled: true}}}
		router, err := cfg.BuildRouter()
		require.NoError(t, err)
		require.NotNil(t, router)
		assert.Equal(t, "ollama", router.ProviderFor("interest").Name())
		assert.Equal(t, "ollama", router.ProviderFor("duplicates").Name())
	})
}
