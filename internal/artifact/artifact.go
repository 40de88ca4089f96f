// Package artifact persists the winning strategy of a parameter sweep
// as a flat JSON document. This document is the only hand-off between
// the sweep and the live trader, which may run in a different process
// on a different host, so the key set is a contract: loads are strict,
// rejecting unknown and missing keys instead of defaulting silently.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/quantforge/stratsweep/internal/backtest"
	"github.com/quantforge/stratsweep/internal/core"
	"github.com/quantforge/stratsweep/internal/signal"
)

// Strategy is the persisted best-strategy record.
type Strategy struct {
	Balance   float64 `json:"balance"`
	EMAFast   int     `json:"ema_fast"`
	EMASlow   int     `json:"ema_slow"`
	RSIPeriod int     `json:"rsi_period"`
	RSIBuy    float64 `json:"rsi_buy"`
	RSISell   float64 `json:"rsi_sell"`
	SLPct     float64 `json:"sl_pct"`
	TPPct     float64 `json:"tp_pct"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Trades    int     `json:"trades"`
	WinRate   float64 `json:"winrate"`
	Symbol    string  `json:"symbol"`
}

// FromBest flattens a sweep result into the persisted shape.
func FromBest(best *backtest.Best) *Strategy {
	return &Strategy{
		Balance:   best.Balance,
		EMAFast:   best.Params.EMAFast,
		EMASlow:   best.Params.EMASlow,
		RSIPeriod: best.Params.RSIPeriod,
		RSIBuy:    best.Params.RSIBuy,
		RSISell:   best.Params.RSISell,
		SLPct:     best.Params.StopLossPct,
		TPPct:     best.Params.TakeProfitPct,
		Wins:      best.Wins,
		Losses:    best.Losses,
		Trades:    best.Trades,
		WinRate:   best.WinRate,
		Symbol:    best.Symbol,
	}
}

// Rule reconstructs the signal configuration the sweep evaluated. The
// live trader must regenerate identical signals from it.
func (s *Strategy) Rule() signal.Rule {
	return signal.Rule{
		EMAFast:   s.EMAFast,
		EMASlow:   s.EMASlow,
		RSIPeriod: s.RSIPeriod,
		RSIBuy:    s.RSIBuy,
		RSISell:   s.RSISell,
	}
}

// ParameterSet reconstructs the full swept parameter combination.
func (s *Strategy) ParameterSet() backtest.ParameterSet {
	return backtest.ParameterSet{
		EMAFast:       s.EMAFast,
		EMASlow:       s.EMASlow,
		RSIPeriod:     s.RSIPeriod,
		RSIBuy:        s.RSIBuy,
		RSISell:       s.RSISell,
		StopLossPct:   s.SLPct,
		TakeProfitPct: s.TPPct,
	}
}

// AssetClass classifies the strategy's symbol.
func (s *Strategy) AssetClass() core.AssetClass {
	return core.ClassifySymbol(s.Symbol)
}

// Validate checks the loaded document describes a usable strategy.
func (s *Strategy) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if err := s.Rule().Validate(); err != nil {
		return err
	}
	if s.SLPct < 0 || s.TPPct < 0 {
		return fmt.Errorf("sl_pct/tp_pct must not be negative, got %g/%g", s.SLPct, s.TPPct)
	}
	if s.Trades < 0 || s.Wins < 0 || s.Losses < 0 {
		return fmt.Errorf("trade counters must not be negative")
	}
	return nil
}

// requiredKeys is the flat-document contract. Every key must be present.
var requiredKeys = []string{
	"balance", "ema_fast", "ema_slow", "rsi_period", "rsi_buy", "rsi_sell",
	"sl_pct", "tp_pct", "wins", "losses", "trades", "winrate", "symbol",
}

// Decode parses a strategy document, rejecting unknown keys, missing
// keys, and semantically invalid values.
func Decode(data []byte) (*Strategy, error) {
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, core.WrapError(core.ErrArtifactInvalid, err)
	}
	for _, key := range requiredKeys {
		if _, ok := present[key]; !ok {
			return nil, core.WrapError(core.ErrArtifactInvalid, fmt.Errorf("missing key %q", key))
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s Strategy
	if err := dec.Decode(&s); err != nil {
		return nil, core.WrapError(core.ErrArtifactInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return nil, core.WrapError(core.ErrArtifactInvalid, err)
	}
	return &s, nil
}

// Encode renders the document as indented JSON.
func (s *Strategy) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Load reads and strictly decodes a strategy file.
func Load(path string) (*Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapError(core.ErrArtifactMissing, err)
		}
		return nil, core.WrapError(core.ErrArtifactInvalid, err)
	}
	return Decode(data)
}

// Save writes the document to path.
func (s *Strategy) Save(path string) error {
	data, err := s.Encode()
	if err != nil {
		return fmt.Errorf("encoding strategy: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
