package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantforge/stratsweep/internal/config"
	"github.com/quantforge/stratsweep/internal/metrics"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stratsweep",
	Short: "stratsweep - EMA/RSI trend-rule sweep and live trading",
	Long: `stratsweep brute-forces EMA crossover + RSI threshold parameters against
historical candles, keeps the best-performing configuration as a strategy
file, and can trade that configuration live through an MT5 bridge.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig resolves the effective configuration: the --config file
// when given, built-in defaults otherwise.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// serveMetrics starts the metrics listener when enabled and returns a
// shutdown func. Disabled configuration returns a no-op.
func serveMetrics(cfg config.MetricsConfig, reg *metrics.Registry, log *zap.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, reg.Handler())
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		log.Info("metrics listening",
			zap.String("addr", cfg.Addr),
			zap.String("path", cfg.Path),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	return func() { srv.Close() }
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
