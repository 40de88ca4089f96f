package live

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/stratsweep/internal/artifact"
	"github.com/quantforge/stratsweep/internal/candle"
	"github.com/quantforge/stratsweep/internal/core"
	"github.com/quantforge/stratsweep/internal/gateway"
)

// fakeGateway records calls and serves canned responses.
type fakeGateway struct {
	balance    gateway.Balance
	balanceErr error

	positions    []gateway.Position
	positionsErr error

	candles    *candle.Set
	candlesErr error

	placed      []gateway.TradeRequest
	tradeResult gateway.TradeResult
	tradeErr    error

	closed   []int64
	closeErr error
}

func (f *fakeGateway) GetBalance(context.Context) (*gateway.Balance, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	b := f.balance
	return &b, nil
}

func (f *fakeGateway) GetPositions(context.Context) ([]gateway.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeGateway) GetCandles(context.Context, string, string, int) (*candle.Set, error) {
	return f.candles, f.candlesErr
}

func (f *fakeGateway) PlaceTrade(_ context.Context, req gateway.TradeRequest) (*gateway.TradeResult, error) {
	f.placed = append(f.placed, req)
	if f.tradeErr != nil {
		return nil, f.tradeErr
	}
	r := f.tradeResult
	return &r, nil
}

func (f *fakeGateway) CloseTrade(_ context.Context, ticket int64) (*gateway.CloseResult, error) {
	if f.closeErr != nil {
		return nil, f.closeErr
	}
	f.closed = append(f.closed, ticket)
	return &gateway.CloseResult{Status: "success"}, nil
}

// testStrategy passes every trade gate and fires a BUY on any rising
// series: the fast EMA leads the slow one and RSI sits below the
// deliberately unreachable buy threshold.
func testStrategy() *artifact.Strategy {
	return &artifact.Strategy{
		Balance:   2000,
		EMAFast:   2,
		EMASlow:   5,
		RSIPeriod: 5,
		RSIBuy:    101,
		RSISell:   200,
		SLPct:     0.001,
		TPPct:     0.002,
		Wins:      10,
		Losses:    2,
		Trades:    12,
		WinRate:   60,
		Symbol:    "EURUSD",
	}
}

func risingBars(n int) *candle.Set {
	bars := make(core.Series, n)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range bars {
		px := 1.0 + float64(i)*0.001
		bars[i] = core.Bar{
			Time:  base.Add(time.Duration(i) * time.Minute),
			Open:  px,
			High:  px + 0.0005,
			Low:   px - 0.0005,
			Close: px,
		}
	}
	return &candle.Set{Symbol: "EURUSD", Timeframe: "M1", Bars: bars}
}

func flatBars(n int) *candle.Set {
	set := risingBars(n)
	for i := range set.Bars {
		set.Bars[i].Open = 1.0
		set.Bars[i].High = 1.0
		set.Bars[i].Low = 1.0
		set.Bars[i].Close = 1.0
	}
	return set
}

func newTestSession(t *testing.T, gw *fakeGateway, strat *artifact.Strategy) *Session {
	t.Helper()
	s := NewSession(DefaultConfig(), gw, nil, nil)
	s.load = func(string) (*artifact.Strategy, error) {
		if strat == nil {
			return nil, core.ErrArtifactMissing
		}
		return strat, nil
	}
	return s
}

func TestTickPlacesTradeAndFlagsTicket(t *testing.T) {
	gw := &fakeGateway{
		balance:     gateway.Balance{Balance: 2000, Equity: 2000},
		candles:     risingBars(60),
		tradeResult: gateway.TradeResult{Status: "success", Details: gateway.TradeDetails{Order: 42}},
	}
	s := newTestSession(t, gw, testStrategy())

	s.Tick(context.Background())

	require.Len(t, gw.placed, 1)
	req := gw.placed[0]
	assert.Equal(t, "EURUSD", req.Symbol)
	assert.Equal(t, core.ActionBuy, req.Action)
	assert.Equal(t, 0.1, req.Lot) // FX lot

	entry := gw.candles.Bars[len(gw.candles.Bars)-1].Close
	assert.InDelta(t, entry*(1-0.001), req.SL, 1e-12)
	assert.InDelta(t, entry*(1+0.002), req.TP, 1e-12)

	assert.Contains(t, s.flagged, int64(42))
}

func TestTickCryptoLot(t *testing.T) {
	strat := testStrategy()
	strat.Symbol = "BTCUSD"
	set := risingBars(60)
	set.Symbol = "BTCUSD"
	gw := &fakeGateway{
		balance:     gateway.Balance{Balance: 2000, Equity: 2000},
		candles:     set,
		tradeResult: gateway.TradeResult{Status: "success", Details: gateway.TradeDetails{Order: 7}},
	}
	s := newTestSession(t, gw, strat)

	s.Tick(context.Background())

	require.Len(t, gw.placed, 1)
	assert.Equal(t, 0.01, gw.placed[0].Lot)
}

func TestTickInvalidLatestBarSkipsTrade(t *testing.T) {
	// A bridge hiccup can hand back a latest bar with no close; the
	// session must not price an entry off it.
	set := risingBars(60)
	set.Bars[len(set.Bars)-1].Close = math.NaN()
	gw := &fakeGateway{
		balance: gateway.Balance{Balance: 2000, Equity: 2000},
		candles: set,
	}
	s := newTestSession(t, gw, testStrategy())

	s.Tick(context.Background())

	assert.Empty(t, gw.placed)
	assert.True(t, s.canTrade, "gates passed, only the bar was rejected")
}

func TestTickGatesBlockTrading(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*artifact.Strategy)
		balance gateway.Balance
	}{
		{
			name:    "winrate at threshold",
			mutate:  func(s *artifact.Strategy) { s.WinRate = 50 },
			balance: gateway.Balance{Balance: 2000, Equity: 2000},
		},
		{
			name:    "too few wins",
			mutate:  func(s *artifact.Strategy) { s.Wins = 6 },
			balance: gateway.Balance{Balance: 2000, Equity: 2000},
		},
		{
			name:    "balance too low",
			mutate:  func(*artifact.Strategy) {},
			balance: gateway.Balance{Balance: 1400, Equity: 1400},
		},
		{
			name:    "floating drawdown too deep",
			mutate:  func(*artifact.Strategy) {},
			balance: gateway.Balance{Balance: 2000, Equity: 1949},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strat := testStrategy()
			tt.mutate(strat)
			gw := &fakeGateway{balance: tt.balance, candles: risingBars(60)}
			s := newTestSession(t, gw, strat)

			s.Tick(context.Background())

			assert.Empty(t, gw.placed)
			assert.False(t, s.canTrade)
		})
	}
}

func TestTickMissingArtifactPausesTrading(t *testing.T) {
	gw := &fakeGateway{candles: risingBars(60)}
	s := newTestSession(t, gw, nil)

	s.Tick(context.Background())

	assert.Empty(t, gw.placed)
	assert.Nil(t, s.strategy)
	assert.False(t, s.canTrade)
}

func TestTickBalanceErrorPausesTrading(t *testing.T) {
	gw := &fakeGateway{
		balanceErr: errors.New("bridge down"),
		candles:    risingBars(60),
	}
	s := newTestSession(t, gw, testStrategy())

	s.Tick(context.Background())

	assert.Empty(t, gw.placed)
	assert.False(t, s.canTrade)
}

func TestTickNoSignalNoTrade(t *testing.T) {
	gw := &fakeGateway{
		balance: gateway.Balance{Balance: 2000, Equity: 2000},
		candles: flatBars(60),
	}
	s := newTestSession(t, gw, testStrategy())

	s.Tick(context.Background())

	assert.True(t, s.canTrade)
	assert.Empty(t, gw.placed)
}

func TestTickReloadsOnlyWhenDue(t *testing.T) {
	loads := 0
	gw := &fakeGateway{
		balance: gateway.Balance{Balance: 2000, Equity: 2000},
		candles: flatBars(60),
	}
	s := NewSession(DefaultConfig(), gw, nil, nil)
	s.load = func(string) (*artifact.Strategy, error) {
		loads++
		return testStrategy(), nil
	}

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Tick(context.Background())
	s.Tick(context.Background())
	assert.Equal(t, 1, loads)

	now = now.Add(61 * time.Second)
	s.Tick(context.Background())
	assert.Equal(t, 2, loads)
}

func TestManageFlaggedClosesProfitAfterHold(t *testing.T) {
	gw := &fakeGateway{
		positions: []gateway.Position{{Ticket: 42, Symbol: "EURUSD", Profit: 3.5}},
	}
	s := newTestSession(t, gw, testStrategy())

	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.flagged[42] = opened
	s.now = func() time.Time { return opened.Add(6 * time.Minute) }

	s.manageFlagged(context.Background())

	assert.Equal(t, []int64{42}, gw.closed)
	assert.NotContains(t, s.flagged, int64(42))
}

func TestManageFlaggedWaitsWhileInLoss(t *testing.T) {
	gw := &fakeGateway{
		positions: []gateway.Position{{Ticket: 42, Profit: -1.2}},
	}
	s := newTestSession(t, gw, testStrategy())

	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.flagged[42] = opened
	s.now = func() time.Time { return opened.Add(time.Hour) }

	s.manageFlagged(context.Background())

	assert.Empty(t, gw.closed)
	assert.Contains(t, s.flagged, int64(42))
}

func TestManageFlaggedRespectsHoldTime(t *testing.T) {
	gw := &fakeGateway{
		positions: []gateway.Position{{Ticket: 42, Profit: 9.9}},
	}
	s := newTestSession(t, gw, testStrategy())

	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.flagged[42] = opened
	s.now = func() time.Time { return opened.Add(2 * time.Minute) }

	s.manageFlagged(context.Background())

	assert.Empty(t, gw.closed)
	assert.Contains(t, s.flagged, int64(42))
}

func TestManageFlaggedPrunesClosedTickets(t *testing.T) {
	gw := &fakeGateway{positions: nil}
	s := newTestSession(t, gw, testStrategy())
	s.flagged[42] = time.Now().Add(-time.Hour)

	s.manageFlagged(context.Background())

	assert.Empty(t, gw.closed)
	assert.Empty(t, s.flagged)
}

func TestFlaggedManagementRunsWhilePaused(t *testing.T) {
	gw := &fakeGateway{
		positions: []gateway.Position{{Ticket: 7, Profit: 1.0}},
	}
	s := newTestSession(t, gw, nil) // missing artifact -> paused

	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.flagged[7] = opened
	s.now = func() time.Time { return opened.Add(10 * time.Minute) }

	s.Tick(context.Background())

	assert.Equal(t, []int64{7}, gw.closed)
}

func TestRunStopsOnCancel(t *testing.T) {
	gw := &fakeGateway{candles: flatBars(10)}
	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	s := NewSession(cfg, gw, nil, nil)
	s.load = func(string) (*artifact.Strategy, error) { return nil, core.ErrArtifactMissing }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after cancel")
	}
}
