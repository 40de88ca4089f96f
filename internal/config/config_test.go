package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
gateway:
  url: "http://127.0.0.1:5000"
  timeout: 5s

sweep:
  ema_fast: [5, 9, 12]
  workers: 4

archive:
  enabled: true
  type: localfs
  path: "/tmp/stratsweep/archive"
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

	if cfg.Gateway.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.Gateway.Timeout)
	}

	if len(cfg.Sweep.EMAFast) != 3 || cfg.Sweep.EMAFast[0] != 5 {
		t.Errorf("expected ema_fast [5 9 12], got %v", cfg.Sweep.EMAFast)
	}

	if cfg.Sweep.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Sweep.Workers)
	}

	if cfg.Archive.Type != "localfs" {
		t.Errorf("expected localfs, got %s", cfg.Archive.Type)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Gateway.URL != "http://127.0.0.1:5000" {
		t.Errorf("expected default gateway url, got %s", cfg.Gateway.URL)
	}

	if cfg.Live.MinBalance != 1400 {
		t.Errorf("expected default min_balance 1400, got %f", cfg.Live.MinBalance)
	}

	if cfg.Live.HoldTime != 5*time.Minute {
		t.Errorf("expected default hold_time 5m, got %s", cfg.Live.HoldTime)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config { return *Defaults() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing gateway url",
			mutate:  func(c *Config) { c.Gateway.URL = "" },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Gateway.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero starting balance",
			mutate:  func(c *Config) { c.Sweep.StartingBalance = 0 },
			wantErr: true,
		},
		{
			name:    "negative stop loss",
			mutate:  func(c *Config) { c.Sweep.StopLoss = []float64{-0.001} },
			wantErr: true,
		},
		{
			name:    "zero take profit",
			mutate:  func(c *Config) { c.Sweep.TakeProfit = []float64{0} },
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Live.PollInterval = 0 },
			wantErr: true,
		},
		{
			name:    "candle count too small",
			mutate:  func(c *Config) { c.Live.CandleCount = 1 },
			wantErr: true,
		},
		{
			name: "archive enabled without path",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Path = ""
			},
			wantErr: true,
		},
		{
			name: "s3 archive without bucket",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Type = "s3"
			},
			wantErr: true,
		},
		{
			name: "unknown archive type",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Type = "tape"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
