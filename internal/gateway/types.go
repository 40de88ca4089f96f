// Package gateway provides the HTTP client for the MT5 bridge server:
// account balance, positions, candles, order placement and closing.
package gateway

import (
	"errors"

	"github.com/quantforge/stratsweep/internal/core"
)

// Gateway-specific errors.
var (
	// ErrGatewayError indicates the bridge answered with an error body.
	// The bridge reports failures as {"error": ...} on HTTP 200.
	ErrGatewayError = errors.New("gateway: server reported error")
	// ErrBadStatus indicates a non-200 HTTP response.
	ErrBadStatus = errors.New("gateway: unexpected HTTP status")
	// ErrTradeFailed indicates the bridge rejected an order.
	ErrTradeFailed = errors.New("gateway: trade not accepted")
)

// Balance is the account summary from GET /balance.
type Balance struct {
	Login    int64   `json:"login"`
	Balance  float64 `json:"balance"`
	Equity   float64 `json:"equity"`
	Currency string  `json:"currency"`
}

// FloatingDrawdown is how far equity has fallen below balance due to
// open positions. Positive values mean open trades are under water.
func (b Balance) FloatingDrawdown() float64 {
	return b.Balance - b.Equity
}

// Position is one open position from GET /positions.
type Position struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Volume    float64 `json:"volume"`
	Profit    float64 `json:"profit"`
	PriceOpen float64 `json:"price_open"`
}

// TradeRequest is the order payload for POST /trade. SL and TP are
// absolute price levels, not percentages.
type TradeRequest struct {
	Symbol string      `json:"symbol"`
	Action core.Action `json:"action"`
	Lot    float64     `json:"lot"`
	SL     float64     `json:"sl,omitempty"`
	TP     float64     `json:"tp,omitempty"`
}

// Validate rejects obviously unusable requests before they hit the wire.
func (r TradeRequest) Validate() error {
	if r.Symbol == "" {
		return errors.New("gateway: empty symbol")
	}
	if r.Action != core.ActionBuy && r.Action != core.ActionSell {
		return errors.New("gateway: action must be BUY or SELL")
	}
	if r.Lot <= 0 {
		return errors.New("gateway: lot must be positive")
	}
	return nil
}

// TradeDetails carries the MT5 order_send result fields the bot reads.
type TradeDetails struct {
	Order    int64   `json:"order"`
	Position int64   `json:"position"`
	Retcode  int     `json:"retcode"`
	Volume   float64 `json:"volume"`
	Price    float64 `json:"price"`
	Comment  string  `json:"comment"`
}

// TradeResult is the decoded response of POST /trade.
type TradeResult struct {
	Status  string       `json:"status"`
	Details TradeDetails `json:"details"`
}

// Ticket returns the identifier to track the fill under: the order id
// when present, otherwise the position id.
func (t TradeResult) Ticket() int64 {
	if t.Details.Order != 0 {
		return t.Details.Order
	}
	return t.Details.Position
}

// CloseResult is the decoded response of POST /close_trade.
type CloseResult struct {
	Status  string       `json:"status"`
	Details TradeDetails `json:"details"`
}
