// Package candle loads OHLCV bars from the MT5 bridge JSON envelope,
// either from a file on disk or from a gateway response body.
package candle

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quantforge/stratsweep/internal/core"
)

// Set is one decoded envelope: the bars plus the symbol/timeframe
// metadata used for labeling and asset classification, never for
// computation.
type Set struct {
	Symbol    string
	Timeframe string
	Bars      core.Series
}

// AssetClass classifies the set's symbol.
func (s *Set) AssetClass() core.AssetClass {
	return core.ClassifySymbol(s.Symbol)
}

type envelope struct {
	Symbol    string      `json:"symbol"`
	Timeframe string      `json:"timeframe"`
	Candles   []rawCandle `json:"candles"`
}

type rawCandle struct {
	Time       string     `json:"time"`
	Open       flexNumber `json:"open"`
	High       flexNumber `json:"high"`
	Low        flexNumber `json:"low"`
	Close      flexNumber `json:"close"`
	TickVolume flexNumber `json:"tick_volume"`
}

// UnmarshalJSON pre-seeds every numeric field with NaN so an absent key
// reads as "missing" rather than the zero value. A zero low or high
// would silently satisfy stop/target touches downstream.
func (c *rawCandle) UnmarshalJSON(data []byte) error {
	nan := flexNumber(math.NaN())
	c.Open, c.High, c.Low, c.Close, c.TickVolume = nan, nan, nan, nan, nan

	type plain rawCandle
	return json.Unmarshal(data, (*plain)(c))
}

// flexNumber coerces JSON numbers that may arrive as numbers, numeric
// strings, or garbage. Anything non-coercible becomes NaN ("missing")
// rather than failing the whole load.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = flexNumber(math.NaN())
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = flexNumber(math.NaN())
		return nil
	}
	*f = flexNumber(v)
	return nil
}

// timeLayouts are tried in order against the envelope's time field.
// The bridge emits "2006-01-02 15:04:05"; the others cover hand-edited
// files.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Decode reads one envelope. Rows with unparseable timestamps are
// dropped; rows with unparseable prices are kept with NaN fields so
// the engine can skip them bar by bar. Bars are sorted ascending by
// time regardless of input order.
func Decode(r io.Reader) (*Set, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, core.WrapError(core.ErrMalformedData, err)
	}

	bars := make(core.Series, 0, len(env.Candles))
	for _, c := range env.Candles {
		ts, ok := parseTime(c.Time)
		if !ok {
			continue
		}
		vol := int64(0)
		if !math.IsNaN(float64(c.TickVolume)) {
			vol = int64(c.TickVolume)
		}
		bars = append(bars, core.Bar{
			Time:       ts,
			Open:       float64(c.Open),
			High:       float64(c.High),
			Low:        float64(c.Low),
			Close:      float64(c.Close),
			TickVolume: vol,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	symbol := env.Symbol
	if symbol == "" {
		symbol = "UNKNOWN"
	}
	timeframe := env.Timeframe
	if timeframe == "" {
		timeframe = "?"
	}
	return &Set{Symbol: symbol, Timeframe: timeframe, Bars: bars}, nil
}

// Load reads an envelope from a file.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening candle file: %w", err)
	}
	defer f.Close()

	set, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return set, nil
}
