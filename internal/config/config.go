package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quantforge/stratsweep/internal/core"
)

type Config struct {
	Gateway GatewayConfig `mapstructure:"gateway"`
	Sweep   SweepConfig   `mapstructure:"sweep"`
	Live    LiveConfig    `mapstructure:"live"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// GatewayConfig holds the MT5 bridge connection settings.
type GatewayConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SweepConfig holds the parameter sweep settings. Empty grid slices
// fall back to the built-in ranges; empty stop/target slices
// fall back to the asset-class ranges for the swept symbol.
type SweepConfig struct {
	EMAFast         []int     `mapstructure:"ema_fast"`
	EMASlow         []int     `mapstructure:"ema_slow"`
	RSIPeriod       []int     `mapstructure:"rsi_period"`
	RSIBuy          []float64 `mapstructure:"rsi_buy"`
	RSISell         []float64 `mapstructure:"rsi_sell"`
	StopLoss        []float64 `mapstructure:"stop_loss"`
	TakeProfit      []float64 `mapstructure:"take_profit"`
	MaxLookahead    int       `mapstructure:"max_lookahead"`
	StartingBalance float64   `mapstructure:"starting_balance"`
	RiskPerTrade    float64   `mapstructure:"risk_per_trade"`
	Workers         int       `mapstructure:"workers"`
	Output          string    `mapstructure:"output"`
}

// LiveConfig holds the live trading loop settings.
type LiveConfig struct {
	StrategyPath   string        `mapstructure:"strategy_path"`
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Timeframe      string        `mapstructure:"timeframe"`
	CandleCount    int           `mapstructure:"candle_count"`
	MinWinRate     float64       `mapstructure:"min_winrate"`
	MinWins        int           `mapstructure:"min_wins"`
	MinBalance     float64       `mapstructure:"min_balance"`
	MaxFloatingDD  float64       `mapstructure:"max_floating_dd"`
	HoldTime       time.Duration `mapstructure:"hold_time"`
}

// ArchiveConfig holds the sweep result archive settings.
type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:     "http://127.0.0.1:5000",
			Timeout: 10 * time.Second,
		},
		Sweep: SweepConfig{
			MaxLookahead:    300,
			StartingBalance: 1000,
			RiskPerTrade:    20,
			Workers:         1,
			Output:          "LIVE.json",
		},
		Live: LiveConfig{
			StrategyPath:   "LIVE.json",
			ReloadInterval: time.Minute,
			PollInterval:   time.Second,
			Timeframe:      "M1",
			CandleCount:    200,
			MinWinRate:     50,
			MinWins:        7,
			MinBalance:     1400,
			MaxFloatingDD:  50,
			HoldTime:       5 * time.Minute,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "localfs",
			Path:    "archive",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Gateway validation
	if c.Gateway.URL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("gateway url is required"))
	}
	if c.Gateway.Timeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("gateway timeout cannot be negative, got %s", c.Gateway.Timeout))
	}

	// Sweep validation
	if c.Sweep.StartingBalance <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("starting_balance must be positive, got %f", c.Sweep.StartingBalance))
	}
	if c.Sweep.RiskPerTrade <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("risk_per_trade must be positive, got %f", c.Sweep.RiskPerTrade))
	}
	if c.Sweep.Workers < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("workers cannot be negative, got %d", c.Sweep.Workers))
	}
	for _, sl := range c.Sweep.StopLoss {
		if sl < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("stop_loss values cannot be negative, got %f", sl))
		}
	}
	for _, tp := range c.Sweep.TakeProfit {
		if tp <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("take_profit values must be positive, got %f", tp))
		}
	}

	// Live validation
	if c.Live.StrategyPath == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("live strategy_path is required"))
	}
	if c.Live.PollInterval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("poll_interval must be positive, got %s", c.Live.PollInterval))
	}
	if c.Live.CandleCount < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("candle_count must be at least 2, got %d", c.Live.CandleCount))
	}

	// Archive validation
	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required when type is localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required when type is s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type %q", c.Archive.Type))
		}
	}

	return nil
}
