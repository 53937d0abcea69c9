package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/trendscreen/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
screen:
  top_n: 5
  corr_threshold: 0.9

universe:
  path: "data/universe.csv"

collector:
  retry_delay: 500ms

storage:
  type: localfs
  path: "/tmp/trendscreen/out"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Screen.TopN != 5 {
		t.Errorf("expected top_n 5, got %d", cfg.Screen.TopN)
	}
	if cfg.Screen.CorrThreshold != 0.9 {
		t.Errorf("expected corr_threshold 0.9, got %f", cfg.Screen.CorrThreshold)
	}
	if cfg.Collector.RetryDelay != 500*time.Millisecond {
		t.Errorf("expected retry_delay 500ms, got %s", cfg.Collector.RetryDelay)
	}
	if cfg.Storage.Path != "/tmp/trendscreen/out" {
		t.Errorf("unexpected storage path %s", cfg.Storage.Path)
	}

	// Unset keys keep their defaults
	if cfg.Screen.MAMonths != 10 {
		t.Errorf("expected default ma_months 10, got %d", cfg.Screen.MAMonths)
	}
	if cfg.Screen.LiquidityWindow != 60 {
		t.Errorf("expected default liquidity_window 60, got %d", cfg.Screen.LiquidityWindow)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TS_TEST_WEBHOOK", "https://example.com/hook")
	content := []byte(`
notifiers:
  webhook:
    enabled: true
    url: "${TS_TEST_WEBHOOK}"
`)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Notifiers["webhook"].URL != "https://example.com/hook" {
		t.Errorf("expected expanded url, got %q", cfg.Notifiers["webhook"].URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Screen.TopN != 3 {
		t.Errorf("expected default top_n 3, got %d", cfg.Screen.TopN)
	}
	if cfg.Screen.MomMonths != 12 {
		t.Errorf("expected default mom_months 12, got %d", cfg.Screen.MomMonths)
	}
	if cfg.Screen.LiqThresholdJPY != 50_000_000 || cfg.Screen.LiqThresholdUSD != 1_000_000 {
		t.Errorf("unexpected liquidity thresholds %f/%f", cfg.Screen.LiqThresholdJPY, cfg.Screen.LiqThresholdUSD)
	}
	if cfg.Collector.Retries != 3 || cfg.Collector.RetryDelay != 2*time.Second {
		t.Errorf("unexpected retry defaults %d/%s", cfg.Collector.Retries, cfg.Collector.RetryDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr *core.Error
	}{
		{"valid config", func(c *Config) {}, nil},
		{"zero top_n", func(c *Config) { c.Screen.TopN = 0 }, core.ErrConfigInvalid},
		{"corr threshold above one", func(c *Config) { c.Screen.CorrThreshold = 1.5 }, core.ErrConfigInvalid},
		{"negative liquidity", func(c *Config) { c.Screen.LiqThresholdUSD = -1 }, core.ErrConfigInvalid},
		{"zero portfolio", func(c *Config) { c.Screen.PortfolioValue = 0 }, core.ErrConfigInvalid},
		{"missing universe", func(c *Config) { c.Universe.Path = "" }, core.ErrConfigMissing},
		{"no retries", func(c *Config) { c.Collector.Retries = 0 }, core.ErrConfigInvalid},
		{"csv without path", func(c *Config) { c.Collector.Provider = "csv" }, core.ErrConfigMissing},
		{"unknown provider", func(c *Config) { c.Collector.Provider = "bloomberg" }, core.ErrConfigInvalid},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }, core.ErrConfigMissing},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }, core.ErrConfigInvalid},
		{"postgres without dsn", func(c *Config) { c.Storage.History.Backend = "postgres" }, core.ErrConfigMissing},
		{"telegram without token", func(c *Config) {
			c.Notifiers = map[string]NotifierConfig{"telegram": {Enabled: true, ChatID: "1"}}
		}, core.ErrConfigMissing},
		{"disabled notifier is ignored", func(c *Config) {
			c.Notifiers = map[string]NotifierConfig{"telegram": {Enabled: false}}
		}, nil},
		{"unknown notifier", func(c *Config) {
			c.Notifiers = map[string]NotifierConfig{"pager": {Enabled: true}}
		}, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
