package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Currency = "EUR"
	cfg.Narrative.Provider = "ollama"
	cfg.Narrative.Model = "llama3"
	cfg.Export.ElasticsearchAddresses = []string{"http://es:9200"}
	cfg.Analysis.AnomalyMaxResults = -1

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "GBP", cfg.Currency)
	assert.Equal(t, 3, cfg.Analysis.TopInsights)
	assert.InDelta(t, 15, cfg.Analysis.TrendThresholdPct, 0.001)
	assert.InDelta(t, 2, cfg.Analysis.AnomalyZThreshold, 0.001)
	assert.Equal(t, 3, cfg.Analysis.AnomalyMinSamples)
	assert.Equal(t, 1, cfg.Analysis.AnomalyMaxResults)
	assert.Equal(t, 1, cfg.Analysis.RecurringMaxResults)
	assert.Equal(t, 48*time.Hour, cfg.Analysis.RecurringIntervalTolerance())
	assert.Equal(t, 30*time.Second, cfg.Narrative.Timeout())
	assert.Equal(t, 0, cfg.Narrative.MaxRetries)
	assert.Equal(t, 100, cfg.Narrative.MaxTransactions)
	assert.Empty(t, cfg.Narrative.Provider)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("currency: USD\nanalysis:\n  top_insights: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 5, cfg.Analysis.TopInsights)
	assert.Equal(t, 3, cfg.Analysis.AnomalyMinSamples)
	assert.Equal(t, "https://api.truelayer.com", cfg.TrueLayer.BaseURL)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("analysis: [\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestSecretsFromEnv(t *testing.T) {
	t.Setenv("SPENDSIGHT_TEST_KEY", "k-123")
	t.Setenv("SPENDSIGHT_TEST_TOKEN", "tok")

	n := Narrative{APIKeyEnv: "SPENDSIGHT_TEST_KEY"}
	assert.Equal(t, "k-123", n.APIKey())
	assert.Empty(t, Narrative{}.APIKey())

	tl := TrueLayerConfig{TokenEnv: "SPENDSIGHT_TEST_TOKEN"}
	assert.Equal(t, "tok", tl.Token())
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "currency: GBP")
	assert.Contains(t, contents, "top_insights: 3")
	assert.Contains(t, contents, "api_key_env: GEMINI_API_KEY")
	assert.Contains(t, contents, "timeout_seconds: 30")
	assert.NotContains(t, contents, "elasticsearch_addresses")
}
