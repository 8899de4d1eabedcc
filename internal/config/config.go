// Package config loads finsight.yaml and the environment overrides layered
// on top of it.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file created by init.
const FileName = "finsight.yaml"

// Config represents the top-level finsight.yaml configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Anomaly AnomalyConfig `yaml:"anomaly"`
	Cluster ClusterConfig `yaml:"cluster"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	Coach   CoachConfig   `yaml:"coach"`

	// Secrets come from the environment only.
	AnthropicKey string `yaml:"-"`
	GeminiKey    string `yaml:"-"`
}

// StoreConfig locates the bolt database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// IngestConfig controls description auto-confirmation and error sampling.
type IngestConfig struct {
	AutoConfirmThreshold float64 `yaml:"auto_confirm_threshold"`
	MaxErrorSamples      int     `yaml:"max_error_samples"`
	ImportDir            string  `yaml:"import_dir"`
}

// AnomalyConfig tunes outlier detection.
type AnomalyConfig struct {
	WindowDays  int     `yaml:"window_days"`
	MinExpenses int     `yaml:"min_expenses"`
	Sigma       float64 `yaml:"sigma"`
}

// ClusterConfig tunes similarity clustering.
type ClusterConfig struct {
	Threshold float64 `yaml:"threshold"`
	MinSize   int     `yaml:"min_size"`
	MaxTokens int     `yaml:"max_tokens"`
	Limit     int     `yaml:"limit"`
}

// EnrichConfig tunes model enrichment.
type EnrichConfig struct {
	Categorizer            string   `yaml:"categorizer"` // keyword, bayes or llm
	PromotionMinConfidence float64  `yaml:"promotion_min_confidence"`
	AllowedCategories      []string `yaml:"allowed_categories,omitempty"`
	Limit                  int      `yaml:"limit"`
}

// CoachConfig selects the text-generation backend.
type CoachConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	OllamaHost   string `yaml:"ollama_host"`
	FallbackHost string `yaml:"fallback_host"`
	SnapshotDays int    `yaml:"snapshot_days"`
}

// Load reads a finsight.yaml file from disk. Fields absent from the file
// keep their defaults.
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
		Store: StoreConfig{Path: "data/finsight.db"},
		Log:   LogConfig{Level: "info", Format: "console"},
		Ingest: IngestConfig{
			AutoConfirmThreshold: 2.8,
			MaxErrorSamples:      5,
			ImportDir:            ".",
		},
		Anomaly: AnomalyConfig{WindowDays: 60, MinExpenses: 5, Sigma: 2},
		Cluster: ClusterConfig{Threshold: 0.5, MinSize: 2, MaxTokens: 2, Limit: 50},
		Enrich: EnrichConfig{
			Categorizer:            "keyword",
			PromotionMinConfidence: 0.8,
			Limit:                  25,
		},
		Coach: CoachConfig{
			Provider:     "ollama",
			Model:        "phi3:mini",
			OllamaHost:   "http://ollama:11434",
			FallbackHost: "http://localhost:11434",
			SnapshotDays: 30,
		},
	}
}

// LoadEnv loads a .env file into the process environment. A missing file is
// not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from environment variables read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Store.Path, "FINSIGHT_DB")
	set(&cfg.Log.Level, "FINSIGHT_LOG_LEVEL")
	set(&cfg.Coach.Provider, "MODEL_PROVIDER")
	set(&cfg.Coach.OllamaHost, "OLLAMA_HOST")
	set(&cfg.Coach.Model, "OLLAMA_MODEL")
	set(&cfg.AnthropicKey, "ANTHROPIC_API_KEY")
	set(&cfg.GeminiKey, "GEMINI_API_KEY")
}
