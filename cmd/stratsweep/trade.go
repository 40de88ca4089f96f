package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quantforge/stratsweep/internal/gateway"
	"github.com/quantforge/stratsweep/internal/live"
	"github.com/quantforge/stratsweep/internal/logger"
	"github.com/quantforge/stratsweep/internal/metrics"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Trade the swept strategy live through the MT5 bridge",
	Long: `Poll the bridge once a second, reload the strategy file once a minute,
and place orders when the configured rule fires on the latest bar.`,
	RunE: runTrade,
}

func init() {
	rootCmd.AddCommand(tradeCmd)
}

func runTrade(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	gw := gateway.NewWithTimeout(cfg.Gateway.URL, cfg.Gateway.Timeout)
	reg := metrics.NewRegistry()
	stopMetrics := serveMetrics(cfg.Metrics, reg, log)
	defer stopMetrics()

	session := live.NewSession(live.Config{
		StrategyPath:   cfg.Live.StrategyPath,
		ReloadInterval: cfg.Live.ReloadInterval,
		PollInterval:   cfg.Live.PollInterval,
		Timeframe:      cfg.Live.Timeframe,
		CandleCount:    cfg.Live.CandleCount,
		MinWinRate:     cfg.Live.MinWinRate,
		MinWins:        cfg.Live.MinWins,
		MinBalance:     cfg.Live.MinBalance,
		MaxFloatingDD:  cfg.Live.MaxFloatingDD,
		HoldTime:       cfg.Live.HoldTime,
	}, gw, log, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("live session: %w", err)
	}
	return nil
}
