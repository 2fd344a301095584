// Package daemon manages the fortuned lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/lucklab/fortuned/internal/app/generator"
	"github.com/lucklab/fortuned/internal/app/tier"
	"github.com/lucklab/fortuned/internal/infra/llm"
	"github.com/lucklab/fortuned/internal/render"
)

// Config holds all fortuned configuration.
type Config struct {
	Bot       BotConfig        `toml:"bot"`
	Generator generator.Config `toml:"generator"`
	Tiers     tier.Config      `toml:"tiers"`
	LLM       llm.Config       `toml:"llm"`
	Rank      RankConfig       `toml:"rank"`
	Retention RetentionConfig  `toml:"retention"`
	History   HistoryConfig    `toml:"history"`
	Templates render.Templates `toml:"templates"`
	API       APIConfig        `toml:"api"`
	Telemetry TelemetryConfig  `toml:"telemetry"`
	Logging   LoggingConfig    `toml:"logging"`
}

// BotConfig holds the feature toggles.
type BotConfig struct {
	Enabled    bool   `toml:"enabled"`
	ShowCached bool   `toml:"show_cached"` // replay the scene on repeat queries
	DataDir    string `toml:"data_dir"`
}

// RankConfig controls the leaderboard.
type RankConfig struct {
	Medals       []string `toml:"medals"`
	DisplayLimit int      `toml:"display_limit"` // -1 shows everyone
}

// RetentionConfig controls pruning windows.
type RetentionConfig struct {
	CacheDays   int `toml:"cache_days"`
	HistoryDays int `toml:"history_days"` // 0 keeps history forever
}

// HistoryConfig controls the personal history view.
type HistoryConfig struct {
	WindowDays   int `toml:"window_days"`
	DisplayLimit int `toml:"display_limit"`
}

// APIConfig controls the HTTP command server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Bot: BotConfig{
			Enabled:    true,
			ShowCached: true,
			DataDir:    filepath.Join(fortunedHome(), "data"),
		},
		Generator: generator.DefaultConfig(),
		Tiers:     tier.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
		Rank: RankConfig{
			Medals:       []string{"🥇", "🥈", "🥉"},
			DisplayLimit: 10,
		},
		Retention: RetentionConfig{
			CacheDays:   7,
			HistoryDays: 0,
		},
		History: HistoryConfig{
			WindowDays:   30,
			DisplayLimit: 10,
		},
		Templates: render.DefaultTemplates(),
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8316,
		},
		Telemetry: TelemetryConfig{Prometheus: true},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads config from $FORTUNED_HOME/config.toml, falling back to
// defaults. A .env file and environment variables override LLM secrets so
// keys stay out of the config file.
func LoadConfig() (Config, error) {
	_ = godotenv.Load() // best-effort; absence is normal

	cfg := DefaultConfig()
	path := filepath.Join(fortunedHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnv(&cfg)
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FORTUNED_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("FORTUNED_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("FORTUNED_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
}

// SaveConfig writes the config to $FORTUNED_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(fortunedHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// fortunedHome returns the fortuned data directory.
func fortunedHome() string {
	if env := os.Getenv("FORTUNED_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fortuned")
}

// Home is exported for use by other packages.
func Home() string {
	return fortunedHome()
}
