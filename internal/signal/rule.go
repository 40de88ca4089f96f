// Package signal converts indicator values into per-bar trade signals
// using an EMA-crossover + RSI-threshold rule.
package signal

import (
	"fmt"

	"github.com/quantforge/stratsweep/internal/core"
	"github.com/quantforge/stratsweep/internal/indicator"
)

// Rule holds the indicator parameters that define one signal
// configuration. The same Rule drives both backtests and live trading,
// so a swept parameter set reconstructs bit-identical signals later.
type Rule struct {
	EMAFast   int
	EMASlow   int
	RSIPeriod int
	RSIBuy    float64
	RSISell   float64
}

// Validate rejects parameter combinations the indicator math cannot
// evaluate. It deliberately does not constrain RSIBuy vs RSISell:
// overlapping thresholds just change how many signals fire.
func (r Rule) Validate() error {
	if r.EMAFast <= 0 || r.EMASlow <= 0 {
		return fmt.Errorf("ema spans must be positive, got fast=%d slow=%d", r.EMAFast, r.EMASlow)
	}
	if r.EMAFast >= r.EMASlow {
		return fmt.Errorf("ema fast span must be below slow span, got fast=%d slow=%d", r.EMAFast, r.EMASlow)
	}
	if r.RSIPeriod <= 0 {
		return fmt.Errorf("rsi period must be positive, got %d", r.RSIPeriod)
	}
	return nil
}

func (r Rule) String() string {
	return fmt.Sprintf("ema(%d/%d) rsi(%d) buy<%.0f sell>%.0f",
		r.EMAFast, r.EMASlow, r.RSIPeriod, r.RSIBuy, r.RSISell)
}

// Frame holds indicator arrays aligned 1:1 with the bar series they
// were built from.
type Frame struct {
	EMAFast []float64
	EMASlow []float64
	RSI     []float64
}

// Len returns the number of bars the frame covers.
func (f *Frame) Len() int {
	return len(f.RSI)
}

// BuildFrame computes the rule's indicators over the closes. EMA values
// are defined from index 0 (seeded with the first close); RSI is the
// sentinel 0 for the first RSIPeriod indices.
func BuildFrame(closes []float64, rule Rule) *Frame {
	return &Frame{
		EMAFast: indicator.EMA(closes, rule.EMAFast),
		EMASlow: indicator.EMA(closes, rule.EMASlow),
		RSI:     indicator.RSI(closes, rule.RSIPeriod),
	}
}

// Classify returns the signal at bar index i. The classification is
// purely instantaneous: it reads only the frame values at i, never a
// future bar, and applies no hysteresis or confirmation.
//
// The RSI warm-up sentinel 0 satisfies rsi < RSIBuy, so the first
// RSIPeriod bars of an uptrend can emit BUY signals. Intentional:
// swept results depend on it.
func (f *Frame) Classify(i int, rule Rule) core.Action {
	fast, slow, rsi := f.EMAFast[i], f.EMASlow[i], f.RSI[i]
	switch {
	case fast > slow && rsi < rule.RSIBuy:
		return core.ActionBuy
	case fast < slow && rsi > rule.RSISell:
		return core.ActionSell
	default:
		return core.ActionNone
	}
}

// Latest classifies the final bar of the frame. The live loop acts on
// this value only.
func (f *Frame) Latest(rule Rule) core.Action {
	if f.Len() == 0 {
		return core.ActionNone
	}
	return f.Classify(f.Len()-1, rule)
}
