package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	Model              string `yaml:"model"`
	MaxTokens          int    `yaml:"max_tokens"`
	ContextBudgetChars int    `yaml:"context_budget_chars"`
	HistoryCapacity    int    `yaml:"history_capacity"`
	DiffContext        int    `yaml:"diff_context"`
	StoreRoot          string `yaml:"store_root"`
	LogFile            string `yaml:"log_file"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://api.anthropic.com/v1/messages",
		Model:              "claude-sonnet-4-20250514",
		MaxTokens:          8192,
		ContextBudgetChars: 120000,
		HistoryCapacity:    HistoryCapacity,
		DiffContext:        DefaultDiffContext,
	}
}

func DefaultConfigPath() string {
	if base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); base != "" {
		return filepath.Join(base, "aide", "config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "aide", "config.yaml")
	}
	return "config.yaml"
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnvAndClamp(cfg), nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return applyEnvAndClamp(cfg), nil
}

func applyEnvAndClamp(cfg Config) Config {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("AIDE_API_KEY")
	}
	if v := os.Getenv("AIDE_BASE_URL"); v != "" && cfg.BaseURL == DefaultConfig().BaseURL {
		cfg.BaseURL = v
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.ContextBudgetChars < 4096 {
		cfg.ContextBudgetChars = 120000
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = HistoryCapacity
	}
	if cfg.DiffContext <= 0 {
		cfg.DiffContext = DefaultDiffContext
	}
	return cfg
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
