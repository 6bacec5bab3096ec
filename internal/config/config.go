// Package config provides configuration management for parley.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/parleybot/parley/internal/nlp"
)

// Defaults applied when no config file overrides them.
const (
	DefaultBotName             = "Parley"
	DefaultPort                = 8484
	DefaultMaxConns            = 4
	DefaultContextWindow       = 5
	DefaultSearchLimit         = 3
	DefaultSimilarityThreshold = 0.3
	DefaultRetentionDays       = 30
	DefaultPurgeIntervalMins   = 60
)

// Config is process-wide, read-only after load.
type Config struct {
	BotName string `yaml:"bot_name"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`

	MaxConns            int     `yaml:"max_conns"`
	ContextWindow       int     `yaml:"context_window"`
	SearchLimit         int     `yaml:"search_limit"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	RetentionDays     int `yaml:"retention_days"`
	PurgeIntervalMins int `yaml:"purge_interval_minutes"`

	// Topics is the ordered topic→keywords table injected into the
	// analyzer. Order matters: classification ties go to the earlier entry.
	Topics []nlp.Topic `yaml:"topics"`
}

// Default returns the built-in configuration, including the default topic
// table.
func Default() *Config {
	return &Config{
		BotName:             DefaultBotName,
		Host:                "127.0.0.1",
		Port:                DefaultPort,
		MaxConns:            DefaultMaxConns,
		ContextWindow:       DefaultContextWindow,
		SearchLimit:         DefaultSearchLimit,
		SimilarityThreshold: DefaultSimilarityThreshold,
		RetentionDays:       DefaultRetentionDays,
		PurgeIntervalMins:   DefaultPurgeIntervalMins,
		Topics: []nlp.Topic{
			{Name: "greeting", Keywords: []string{"hello", "hey", "good morning", "good evening"}},
			{Name: "outdoors", Keywords: []string{"hiking", "mountain", "trail", "camping", "nature", "outdoor"}},
			{Name: "food", Keywords: []string{"food", "pizza", "restaurant", "cooking", "recipe", "eat"}},
			{Name: "music", Keywords: []string{"music", "song", "guitar", "concert", "album", "band"}},
			{Name: "work", Keywords: []string{"work", "job", "office", "meeting", "project", "deadline"}},
			{Name: "weather", Keywords: []string{"weather", "rain", "sunny", "snow", "cold", "warm"}},
		},
	}
}

// DataDir returns the data directory, honoring PARLEY_DATA_DIR.
func DataDir() string {
	if dir := os.Getenv("PARLEY_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parley"
	}
	return filepath.Join(home, ".parley")
}

// DBPath returns the SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "parley.db")
}

// ConfigPath returns the YAML config file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// ResponsesPath returns the response-catalog CSV path.
func ResponsesPath() string {
	return filepath.Join(DataDir(), "responses.csv")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}

// Load reads the config file over the defaults. A missing file is not an
// error; the defaults are returned unchanged.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
