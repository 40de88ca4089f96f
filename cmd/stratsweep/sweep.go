package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantforge/stratsweep/internal/artifact"
	"github.com/quantforge/stratsweep/internal/backtest"
	"github.com/quantforge/stratsweep/internal/candle"
	"github.com/quantforge/stratsweep/internal/config"
	"github.com/quantforge/stratsweep/internal/core"
	"github.com/quantforge/stratsweep/internal/logger"
	"github.com/quantforge/stratsweep/internal/metrics"
	"github.com/quantforge/stratsweep/internal/storage/archive"
)

var (
	sweepWorkers   int
	sweepLookahead int
	sweepOut       string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [candles.json]",
	Short: "Brute-force the parameter grid over a candle file",
	Long: `Run every EMA/RSI/stop/target combination against the given candle
file and write the best-performing configuration as a strategy file.`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "parallel workers (0 = config value)")
	sweepCmd.Flags().IntVar(&sweepLookahead, "lookahead", 0, "max bars to scan per trade (0 or negative = unbounded)")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "strategy output path (default from config)")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if sweepWorkers > 0 {
		cfg.Sweep.Workers = sweepWorkers
	}
	if cmd.Flags().Changed("lookahead") {
		cfg.Sweep.MaxLookahead = sweepLookahead
	}
	if sweepOut != "" {
		cfg.Sweep.Output = sweepOut
	}

	set, err := candle.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading candles: %w", err)
	}
	log.Info("candles loaded",
		zap.String("symbol", set.Symbol),
		zap.String("timeframe", set.Timeframe),
		zap.Int("bars", len(set.Bars)),
	)

	grid := buildGrid(cfg.Sweep, set.AssetClass())
	total := len(grid.Combos())
	log.Info("sweep starting",
		zap.String("asset_class", string(set.AssetClass())),
		zap.Int("combinations", total),
		zap.Int("workers", cfg.Sweep.Workers),
		zap.Int("max_lookahead", cfg.Sweep.MaxLookahead),
	)

	reg := metrics.NewRegistry()
	stopMetrics := serveMetrics(cfg.Metrics, reg, log)
	defer stopMetrics()

	sweeper := &backtest.Sweeper{
		Config: backtest.RunConfig{
			StartingBalance: cfg.Sweep.StartingBalance,
			RiskPerTrade:    cfg.Sweep.RiskPerTrade,
			MaxLookahead:    cfg.Sweep.MaxLookahead,
		},
		Workers: cfg.Sweep.Workers,
		Progress: func(p backtest.Progress) {
			reg.ComboEvaluated()
			reg.TradesSimulated("win", p.Result.Wins)
			reg.TradesSimulated("loss", p.Result.Losses)
			switch {
			case p.NewBest != nil:
				fmt.Printf("[%d/%d] new best: balance=%.2f winrate=%.1f%% trades=%d %s\n",
					p.Checked, p.Total,
					p.NewBest.Balance, p.NewBest.WinRate, p.NewBest.Trades,
					p.NewBest.Params.Rule())
			case p.Checked%500 == 0:
				fmt.Printf("[%d/%d] checked\n", p.Checked, p.Total)
			}
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	best, err := sweeper.Run(ctx, set.Bars, set.Symbol, grid)
	if err != nil {
		reg.SweepCompleted("failed", time.Since(started).Seconds())
		return fmt.Errorf("sweep failed: %w", err)
	}
	reg.SweepCompleted("success", time.Since(started).Seconds())

	fmt.Println()
	fmt.Println("=== Sweep Result ===")
	fmt.Printf("Symbol:   %s\n", best.Symbol)
	fmt.Printf("Rule:     %s\n", best.Params.Rule())
	fmt.Printf("SL/TP:    %.4f / %.4f\n", best.Params.StopLossPct, best.Params.TakeProfitPct)
	fmt.Printf("Balance:  %.2f\n", best.Balance)
	fmt.Printf("Trades:   %d (%d wins, %d losses)\n", best.Trades, best.Wins, best.Losses)
	fmt.Printf("Win rate: %.1f%%\n", best.WinRate)

	strat := artifact.FromBest(best)
	if err := strat.Save(cfg.Sweep.Output); err != nil {
		return fmt.Errorf("saving strategy: %w", err)
	}
	log.Info("strategy written", zap.String("path", cfg.Sweep.Output))

	if cfg.Archive.Enabled {
		if err := archiveResult(ctx, cfg.Archive, strat, log); err != nil {
			// The strategy file on disk is the primary output; a failed
			// archive upload should not fail the sweep.
			log.Warn("archiving sweep result failed", zap.Error(err))
		}
	}

	return nil
}

// buildGrid merges config overrides over the built-in ranges.
func buildGrid(cfg config.SweepConfig, class core.AssetClass) backtest.Grid {
	grid := backtest.DefaultGrid(class)
	if len(cfg.EMAFast) > 0 {
		grid.EMAFast = cfg.EMAFast
	}
	if len(cfg.EMASlow) > 0 {
		grid.EMASlow = cfg.EMASlow
	}
	if len(cfg.RSIPeriod) > 0 {
		grid.RSIPeriod = cfg.RSIPeriod
	}
	if len(cfg.RSIBuy) > 0 {
		grid.RSIBuy = cfg.RSIBuy
	}
	if len(cfg.RSISell) > 0 {
		grid.RSISell = cfg.RSISell
	}
	if len(cfg.StopLoss) > 0 {
		grid.StopLoss = cfg.StopLoss
	}
	if len(cfg.TakeProfit) > 0 {
		grid.TakeProfit = cfg.TakeProfit
	}
	return grid
}

func newArchiveStore(cfg config.ArchiveConfig) (archive.Store, error) {
	switch cfg.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

func archiveResult(ctx context.Context, cfg config.ArchiveConfig, strat *artifact.Strategy, log *zap.Logger) error {
	store, err := newArchiveStore(cfg)
	if err != nil {
		return err
	}

	data, err := strat.Encode()
	if err != nil {
		return err
	}

	key := archive.Key(strat.Symbol, time.Now().UTC())
	if err := store.Put(ctx, key, data); err != nil {
		return err
	}

	log.Info("sweep result archived",
		zap.String("type", cfg.Type),
		zap.String("key", key),
	)
	return nil
}
