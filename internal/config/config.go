package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file at the project root.
const FileName = "spendsight.yaml"

// Config represents the top-level spendsight.yaml configuration.
type Config struct {
	Currency  string          `yaml:"currency"`
	Analysis  Analysis        `yaml:"analysis"`
	Narrative Narrative       `yaml:"narrative"`
	TrueLayer TrueLayerConfig `yaml:"truelayer"`
	Export    ExportConfig    `yaml:"export"`
}

// Analysis holds the detector thresholds and result caps.
type Analysis struct {
	TopInsights                   int     `yaml:"top_insights"`
	TrendThresholdPct             float64 `yaml:"trend_threshold_pct"`
	AnomalyZThreshold             float64 `yaml:"anomaly_z_threshold"`
	AnomalyMinSamples             int     `yaml:"anomaly_min_samples"`
	AnomalyMaxResults             int     `yaml:"anomaly_max_results"` // <0 = unlimited
	RecurringMinOccurrences       int     `yaml:"recurring_min_occurrences"`
	RecurringAmountTolerance      float64 `yaml:"recurring_amount_tolerance"`
	RecurringIntervalToleranceDay float64 `yaml:"recurring_interval_tolerance_days"`
	RecurringMaxResults           int     `yaml:"recurring_max_results"` // <0 = unlimited
}

// RecurringIntervalTolerance converts the configured days to a duration.
func (a Analysis) RecurringIntervalTolerance() time.Duration {
	return time.Duration(a.RecurringIntervalToleranceDay * float64(24*time.Hour))
}

// Narrative configures the optional text-generation collaborator.
type Narrative struct {
	Provider        string `yaml:"provider"` // "", "gemini" or "ollama"
	Model           string `yaml:"model"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	APIKeyEnv       string `yaml:"api_key_env"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxRetries      int    `yaml:"max_retries"`
	MaxTransactions int    `yaml:"max_transactions"`
}

// Timeout returns the per-request deadline.
func (n Narrative) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// APIKey reads the key from the configured environment variable.
func (n Narrative) APIKey() string {
	if n.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(n.APIKeyEnv)
}

// TrueLayerConfig points at the Open Banking data source.
type TrueLayerConfig struct {
	BaseURL  string `yaml:"base_url"`
	TokenEnv string `yaml:"token_env"`
}

// Token reads the access token from the configured environment variable.
func (t TrueLayerConfig) Token() string {
	if t.TokenEnv == "" {
		return ""
	}
	return os.Getenv(t.TokenEnv)
}

// ExportConfig configures report sinks.
type ExportConfig struct {
	ElasticsearchAddresses []string `yaml:"elasticsearch_addresses,omitempty"`
	ElasticsearchIndex     string   `yaml:"elasticsearch_index"`
}

// Load reads a spendsight.yaml file from disk. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Currency: "GBP",
		Analysis: Analysis{
			TopInsights:                   3,
			TrendThresholdPct:             15,
			AnomalyZThreshold:             2,
			AnomalyMinSamples:             3,
			AnomalyMaxResults:             1,
			RecurringMinOccurrences:       2,
			RecurringAmountTolerance:      0.10,
			RecurringIntervalToleranceDay: 2,
			RecurringMaxResults:           1,
		},
		Narrative: Narrative{
			APIKeyEnv:       "GEMINI_API_KEY",
			TimeoutSeconds:  30,
			MaxTransactions: 100,
		},
		TrueLayer: TrueLayerConfig{
			BaseURL:  "https://api.truelayer.com",
			TokenEnv: "TRUELAYER_ACCESS_TOKEN",
		},
		Export: ExportConfig{
			ElasticsearchIndex: "spendsight",
		},
	}
}
