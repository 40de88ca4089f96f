// Package live replays the swept trading rule against streaming bars
// and forwards orders to the MT5 bridge. One Session owns all loop
// state: the active strategy, the trade gates, and the flagged tickets
// awaiting profit-taking.
package live

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quantforge/stratsweep/internal/artifact"
	"github.com/quantforge/stratsweep/internal/candle"
	"github.com/quantforge/stratsweep/internal/core"
	"github.com/quantforge/stratsweep/internal/gateway"
	"github.com/quantforge/stratsweep/internal/metrics"
	"github.com/quantforge/stratsweep/internal/signal"
)

// Gateway is the subset of the bridge client the session needs.
type Gateway interface {
	GetBalance(ctx context.Context) (*gateway.Balance, error)
	GetPositions(ctx context.Context) ([]gateway.Position, error)
	GetCandles(ctx context.Context, symbol, timeframe string, count int) (*candle.Set, error)
	PlaceTrade(ctx context.Context, req gateway.TradeRequest) (*gateway.TradeResult, error)
	CloseTrade(ctx context.Context, ticket int64) (*gateway.CloseResult, error)
}

// Config holds the live loop settings.
type Config struct {
	// StrategyPath is the artifact file produced by the sweep.
	StrategyPath string
	// ReloadInterval is how often the artifact and trade gates are
	// re-evaluated.
	ReloadInterval time.Duration
	// PollInterval is the loop tick period.
	PollInterval time.Duration
	// Timeframe and CandleCount size the bar window fetched per tick.
	Timeframe   string
	CandleCount int
	// Trade gates: the session only opens new positions when the
	// artifact's winrate exceeds MinWinRate, its wins reach MinWins,
	// and the account balance exceeds MinBalance.
	MinWinRate float64
	MinWins    int
	MinBalance float64
	// MaxFloatingDD pauses trading when balance-equity exceeds it.
	MaxFloatingDD float64
	// HoldTime is how long a flagged ticket must be open before the
	// session starts trying to close it in profit.
	HoldTime time.Duration
}

// DefaultConfig returns the standard loop settings.
func DefaultConfig() Config {
	return Config{
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
	}
}

// Session is the live trading loop state. It is not safe for
// concurrent use; one goroutine drives it via Run or Tick.
type Session struct {
	cfg Config
	gw  Gateway
	log *zap.Logger
	reg *metrics.Registry

	strategy   *artifact.Strategy
	canTrade   bool
	lastReload time.Time
	flagged    map[int64]time.Time

	// Injection points for tests.
	load func(path string) (*artifact.Strategy, error)
	now  func() time.Time
}

// NewSession creates a session around the given gateway.
func NewSession(cfg Config, gw Gateway, log *zap.Logger, reg *metrics.Registry) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Session{
		cfg:     cfg,
		gw:      gw,
		log:     log,
		reg:     reg,
		flagged: make(map[int64]time.Time),
		load:    artifact.Load,
		now:     time.Now,
	}
}

// Run drives the session until the context is cancelled. Every failure
// inside a tick is logged and swallowed; the loop never stops on
// gateway trouble.
func (s *Session) Run(ctx context.Context) error {
	s.log.Info("live session starting",
		zap.String("strategy_path", s.cfg.StrategyPath),
		zap.Duration("poll_interval", s.cfg.PollInterval),
	)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		s.Tick(ctx)
		select {
		case <-ctx.Done():
			s.log.Info("live session stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one poll iteration: reload the strategy when due, evaluate
// the latest bar when trading is allowed, then manage flagged tickets.
func (s *Session) Tick(ctx context.Context) {
	s.reg.LiveTick()

	if s.lastReload.IsZero() || s.now().Sub(s.lastReload) >= s.cfg.ReloadInterval {
		s.reloadStrategy(ctx)
	}

	if s.strategy != nil && s.canTrade {
		s.evaluateSignal(ctx)
	}

	s.manageFlagged(ctx)
	s.reg.SetFlaggedPositions(len(s.flagged))
}

// reloadStrategy refreshes the artifact and re-evaluates the trade
// gates. A missing or malformed artifact pauses trading rather than
// raising: the loop keeps managing open tickets either way.
func (s *Session) reloadStrategy(ctx context.Context) {
	s.lastReload = s.now()

	strat, err := s.load(s.cfg.StrategyPath)
	if err != nil {
		s.log.Warn("no active strategy, trading paused", zap.Error(err))
		s.strategy = nil
		s.setCanTrade(false)
		return
	}
	s.strategy = strat

	balance, err := s.gw.GetBalance(ctx)
	if err != nil {
		s.reg.GatewayError("balance")
		s.log.Warn("balance unavailable, trading paused", zap.Error(err))
		s.setCanTrade(false)
		return
	}
	s.reg.SetAccountBalance(balance.Balance)

	equityGuard := balance.FloatingDrawdown() > s.cfg.MaxFloatingDD
	ok := strat.WinRate > s.cfg.MinWinRate &&
		strat.Wins >= s.cfg.MinWins &&
		balance.Balance > s.cfg.MinBalance &&
		!equityGuard
	s.setCanTrade(ok)

	s.log.Info("strategy reloaded",
		zap.String("symbol", strat.Symbol),
		zap.Float64("winrate", strat.WinRate),
		zap.Int("wins", strat.Wins),
		zap.Float64("balance", balance.Balance),
		zap.Bool("equity_guard", equityGuard),
		zap.Bool("can_trade", ok),
	)
}

func (s *Session) setCanTrade(ok bool) {
	s.canTrade = ok
	s.reg.SetTradingEnabled(ok)
}

// evaluateSignal fetches a fresh bar window, classifies the final bar
// under the active rule, and places an order when it fires.
func (s *Session) evaluateSignal(ctx context.Context) {
	strat := s.strategy
	set, err := s.gw.GetCandles(ctx, strat.Symbol, s.cfg.Timeframe, s.cfg.CandleCount)
	if err != nil {
		s.reg.GatewayError("candles")
		s.log.Warn("candle fetch failed", zap.Error(err))
		return
	}
	if len(set.Bars) == 0 {
		return
	}
	last := set.Bars[len(set.Bars)-1]
	if !last.IsValid() {
		s.log.Warn("latest bar invalid, skipping evaluation",
			zap.Time("bar", last.Time),
			zap.Float64("close", last.Close),
		)
		return
	}

	rule := strat.Rule()
	frame := signal.BuildFrame(set.Bars.Closes(), rule)
	action := frame.Latest(rule)

	if action == core.ActionNone {
		s.log.Debug("no signal",
			zap.Time("bar", last.Time),
			zap.Float64("close", last.Close),
		)
		return
	}

	entry := last.Close
	var sl, tp float64
	if action == core.ActionBuy {
		sl = entry * (1 - strat.SLPct)
		tp = entry * (1 + strat.TPPct)
	} else {
		sl = entry * (1 + strat.SLPct)
		tp = entry * (1 - strat.TPPct)
	}

	req := gateway.TradeRequest{
		Symbol: strat.Symbol,
		Action: action,
		Lot:    strat.AssetClass().DefaultLot(),
		SL:     sl,
		TP:     tp,
	}
	result, err := s.gw.PlaceTrade(ctx, req)
	if err != nil {
		s.reg.GatewayError("trade")
		s.reg.OrderPlaced(string(action), "failed")
		s.log.Warn("order failed", zap.String("action", string(action)), zap.Error(err))
		return
	}
	s.reg.OrderPlaced(string(action), "success")

	ticket := result.Ticket()
	if ticket != 0 {
		s.flagged[ticket] = s.now()
	}
	s.log.Info("order placed",
		zap.String("action", string(action)),
		zap.Float64("entry", entry),
		zap.Float64("sl", sl),
		zap.Float64("tp", tp),
		zap.Int64("ticket", ticket),
	)
}

// manageFlagged walks open positions and closes flagged tickets that
// have been held past HoldTime and sit in profit. Losing tickets stay
// open waiting for profit; tickets no longer reported by the gateway
// (closed by stop or target) are pruned from tracking.
func (s *Session) manageFlagged(ctx context.Context) {
	if len(s.flagged) == 0 {
		return
	}

	positions, err := s.gw.GetPositions(ctx)
	if err != nil {
		s.reg.GatewayError("positions")
		s.log.Warn("position fetch failed", zap.Error(err))
		return
	}

	open := make(map[int64]gateway.Position, len(positions))
	for _, pos := range positions {
		open[pos.Ticket] = pos
	}

	now := s.now()
	for ticket, openedAt := range s.flagged {
		pos, stillOpen := open[ticket]
		if !stillOpen {
			delete(s.flagged, ticket)
			s.log.Debug("ticket left the book", zap.Int64("ticket", ticket))
			continue
		}
		if now.Sub(openedAt) <= s.cfg.HoldTime {
			continue
		}
		if pos.Profit <= 0 {
			s.log.Debug("held ticket still in loss, waiting for profit",
				zap.Int64("ticket", ticket),
				zap.Float64("profit", pos.Profit),
			)
			continue
		}

		if _, err := s.gw.CloseTrade(ctx, ticket); err != nil {
			s.reg.GatewayError("close_trade")
			s.log.Warn("close failed", zap.Int64("ticket", ticket), zap.Error(err))
			continue
		}
		delete(s.flagged, ticket)
		s.reg.PositionClosed()
		s.log.Info("closed ticket in profit",
			zap.Int64("ticket", ticket),
			zap.Float64("profit", pos.Profit),
		)
	}
}
