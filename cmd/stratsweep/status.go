package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantforge/stratsweep/internal/gateway"
	"github.com/quantforge/stratsweep/internal/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bridge account state and open positions",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	gw := gateway.NewWithTimeout(cfg.Gateway.URL, cfg.Gateway.Timeout)
	ctx := context.Background()

	balance, err := gw.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("getting balance: %w", err)
	}

	fmt.Println("Account Summary")
	fmt.Println("---------------")
	fmt.Printf("Login:    %d\n", balance.Login)
	fmt.Printf("Balance:  %.2f %s\n", balance.Balance, balance.Currency)
	fmt.Printf("Equity:   %.2f %s\n", balance.Equity, balance.Currency)
	fmt.Printf("Floating: %.2f\n", -balance.FloatingDrawdown())
	fmt.Println()

	positions, err := gw.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("getting positions: %w", err)
	}

	if len(positions) == 0 {
		fmt.Println("No open positions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKET\tSYMBOL\tVOLUME\tOPEN\tP&L\t")
	fmt.Fprintln(w, "------\t------\t------\t----\t---\t")

	for _, p := range positions {
		plSign := ""
		if p.Profit >= 0 {
			plSign = "+"
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.5f\t%s%.2f\t\n",
			p.Ticket, p.Symbol, p.Volume, p.PriceOpen, plSign, p.Profit)
	}
	w.Flush()

	log.Info("positions listed", zap.Int("count", len(positions)))
	return nil
}
