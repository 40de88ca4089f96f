package core

import (
	"math"
	"time"
)

// Bar represents one OHLCV-sampled interval of price data.
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	TickVolume int64
}

// IsValid reports whether the bar carries a usable price. A bar whose
// close failed numeric coercion shows up here as NaN.
func (b Bar) IsValid() bool {
	return !math.IsNaN(b.Close) && b.Close != 0
}

// Series is a time-ordered sequence of bars. It is built once per run
// and treated as read-only during evaluation.
type Series []Bar

// Closes returns the close prices as a parallel slice.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Opens returns the open prices as a parallel slice.
func (s Series) Opens() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Open
	}
	return out
}

// Highs returns the high prices as a parallel slice.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low prices as a parallel slice.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Action represents a per-bar trading signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionNone Action = ""
)
