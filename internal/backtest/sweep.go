package backtest

import (
	"context"
	"sync"

	"github.com/quantforge/stratsweep/internal/core"
)

// Grid holds the candidate values for every swept parameter. The
// Cartesian product filtered to EMAFast < EMASlow forms the search
// space.
type Grid struct {
	EMAFast    []int
	EMASlow    []int
	RSIPeriod  []int
	RSIBuy     []float64
	RSISell    []float64
	StopLoss   []float64
	TakeProfit []float64
}

// DefaultGrid returns the built-in parameter ranges, with stop/target
// candidates taken from the asset class table.
func DefaultGrid(class core.AssetClass) Grid {
	exits := class.DefaultExitRanges()
	return Grid{
		EMAFast:    []int{5, 9, 12},
		EMASlow:    []int{21, 30, 50},
		RSIPeriod:  []int{7, 14},
		RSIBuy:     []float64{40, 45, 50},
		RSISell:    []float64{50, 55, 60},
		StopLoss:   exits.StopLoss,
		TakeProfit: exits.TakeProfit,
	}
}

// Combos enumerates the grid in a fixed nesting order. The order
// matters: ties on final balance are broken by first-seen combination,
// so enumeration must be reproducible.
func (g Grid) Combos() []ParameterSet {
	var combos []ParameterSet
	for _, ef := range g.EMAFast {
		for _, es := range g.EMASlow {
			if ef >= es {
				continue
			}
			for _, rp := range g.RSIPeriod {
				for _, rb := range g.RSIBuy {
					for _, rs := range g.RSISell {
						for _, sl := range g.StopLoss {
							for _, tp := range g.TakeProfit {
								combos = append(combos, ParameterSet{
									EMAFast:       ef,
									EMASlow:       es,
									RSIPeriod:     rp,
									RSIBuy:        rb,
									RSISell:       rs,
									StopLossPct:   sl,
									TakeProfitPct: tp,
								})
							}
						}
					}
				}
			}
		}
	}
	return combos
}

// Progress reports sweep advancement to the caller.
type Progress struct {
	// Checked is the 1-based position of the combination just finished,
	// in enumeration order.
	Checked int
	Total   int
	// Result is the finished combination's full run result.
	Result RunResult
	// NewBest is set when this combination strictly beat the running
	// best balance.
	NewBest *RunResult
}

// Best is the sweep's output: the single highest-balance run plus the
// symbol needed to reconstruct a live configuration.
type Best struct {
	RunResult
	Symbol string
}

// Sweeper runs a parameter grid over one bar series. Combinations are
// fully independent, so evaluation fans out across Workers goroutines;
// the reduction always walks results in enumeration order, which keeps
// the first-seen tie-break identical for any worker count. Workers at
// or below 1 evaluates sequentially.
type Sweeper struct {
	Config   RunConfig
	Workers  int
	Progress func(Progress)
}

// Run evaluates every combination and returns the best by strict
// greater-than on final balance. An empty grid yields ErrNoData.
func (s *Sweeper) Run(ctx context.Context, series core.Series, symbol string, grid Grid) (*Best, error) {
	combos := grid.Combos()
	if len(combos) == 0 {
		return nil, core.ErrNoData
	}

	results := make([]RunResult, len(combos))
	if s.Workers <= 1 {
		for idx, p := range combos {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[idx] = Run(series, p, s.Config)
		}
	} else if err := s.runParallel(ctx, series, combos, results); err != nil {
		return nil, err
	}

	best := &Best{Symbol: symbol}
	best.Balance = -1e18
	for idx := range results {
		var newBest *RunResult
		if results[idx].Balance > best.Balance {
			best.RunResult = results[idx]
			newBest = &results[idx]
		}
		if s.Progress != nil {
			s.Progress(Progress{
				Checked: idx + 1,
				Total:   len(combos),
				Result:  results[idx],
				NewBest: newBest,
			})
		}
	}
	return best, nil
}

func (s *Sweeper) runParallel(ctx context.Context, series core.Series, combos []ParameterSet, results []RunResult) error {
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < s.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = Run(series, combos[idx], s.Config)
			}
		}()
	}

	var err error
feed:
	for idx := range combos {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()
	return err
}
