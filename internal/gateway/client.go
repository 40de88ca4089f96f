package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quantforge/stratsweep/internal/candle"
)

const defaultTimeout = 10 * time.Second

// Client talks to the MT5 bridge server.
type Client struct {
	client  *http.Client
	baseURL string
}

// New creates a client for the given bridge base URL.
func New(baseURL string) *Client {
	return NewWithTimeout(baseURL, defaultTimeout)
}

// NewWithTimeout creates a client with a custom request timeout.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// get fetches path and returns the raw body after surfacing transport
// and error-body failures. The bridge reports its own failures as
// {"error": ...} with HTTP 200, so every body is probed for that shape.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrBadStatus, req.Method, req.URL.Path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrGatewayError, probe.Error)
	}
	return body, nil
}

// GetBalance fetches the account summary.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	body, err := c.get(ctx, "/balance")
	if err != nil {
		return nil, err
	}
	var b Balance
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decoding balance: %w", err)
	}
	return &b, nil
}

// GetPositions fetches all open positions.
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	body, err := c.get(ctx, "/positions")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Positions []Position `json:"positions"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding positions: %w", err)
	}
	return payload.Positions, nil
}

// GetCandles fetches the most recent count bars for symbol at the
// given timeframe, decoded through the shared envelope parser.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, count int) (*candle.Set, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", timeframe)
	q.Set("count", strconv.Itoa(count))

	body, err := c.get(ctx, "/candles?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return candle.Decode(bytes.NewReader(body))
}

// PlaceTrade submits a market order. A bridge-side rejection comes back
// wrapped in ErrTradeFailed.
func (c *Client) PlaceTrade(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/trade", req)
	if err != nil {
		return nil, err
	}

	var result TradeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding trade result: %w", err)
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("%w: status %q retcode %d %s",
			ErrTradeFailed, result.Status, result.Details.Retcode, result.Details.Comment)
	}
	return &result, nil
}

// CloseTrade asks the bridge to close the position behind ticket.
func (c *Client) CloseTrade(ctx context.Context, ticket int64) (*CloseResult, error) {
	body, err := c.post(ctx, "/close_trade", map[string]int64{"ticket": ticket})
	if err != nil {
		return nil, err
	}
	var result CloseResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding close result: %w", err)
	}
	return &result, nil
}
