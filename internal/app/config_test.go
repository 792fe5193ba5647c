package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config is not an error: %v", err)
	}
	if cfg.HistoryCapacity != HistoryCapacity {
		t.Fatalf("default history capacity = %d, want %d", cfg.HistoryCapacity, HistoryCapacity)
	}
	if cfg.DiffContext != DefaultDiffContext {
		t.Fatalf("default diff context = %d", cfg.DiffContext)
	}
}

func TestLoadConfigClampsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("model: m\nmax_tokens: -5\ncontext_budget_chars: 10\nhistory_capacity: 0\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MaxTokens <= 0 || cfg.ContextBudgetChars < 4096 || cfg.HistoryCapacity <= 0 {
		t.Fatalf("bad values must be clamped: %+v", cfg)
	}
	if cfg.Model != "m" {
		t.Fatalf("explicit model must survive: %q", cfg.Model)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	in := DefaultConfig()
	in.Model = "custom-model"

	if err := SaveConfig(in, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	out, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if out.Model != "custom-model" {
		t.Fatalf("round trip lost model: %q", out.Model)
	}
}
