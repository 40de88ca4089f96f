package core

import "strings"

// AssetClass is a closed set of instrument categories. Each class carries
// its own default stop-loss/take-profit sweep ranges and live lot size.
type AssetClass string

const (
	AssetFX     AssetClass = "FX"
	AssetCrypto AssetClass = "CRYPTO"
	AssetMetal  AssetClass = "METAL"
)

// ClassifySymbol maps a broker symbol to its asset class. Crypto and
// metals move in wider percentage bands than FX pairs, so they get
// looser stop/target ranges downstream.
func ClassifySymbol(symbol string) AssetClass {
	s := strings.ToUpper(symbol)
	switch {
	case strings.Contains(s, "BTC") || strings.Contains(s, "ETH"):
		return AssetCrypto
	case strings.Contains(s, "XAU"):
		return AssetMetal
	default:
		return AssetFX
	}
}

// ExitRanges holds the default stop-loss and take-profit percentage
// candidates for a parameter sweep.
type ExitRanges struct {
	StopLoss   []float64
	TakeProfit []float64
}

var classRanges = map[AssetClass]ExitRanges{
	AssetFX:     {StopLoss: []float64{0.0005, 0.001}, TakeProfit: []float64{0.001, 0.002}},
	AssetCrypto: {StopLoss: []float64{0.005, 0.01}, TakeProfit: []float64{0.01, 0.02}},
	AssetMetal:  {StopLoss: []float64{0.005, 0.01}, TakeProfit: []float64{0.01, 0.02}},
}

// DefaultExitRanges returns the sweep ranges for the class.
func (c AssetClass) DefaultExitRanges() ExitRanges {
	if r, ok := classRanges[c]; ok {
		return r
	}
	return classRanges[AssetFX]
}

// DefaultLot returns the live order volume for the class.
func (c AssetClass) DefaultLot() float64 {
	if c == AssetFX {
		return 0.1
	}
	return 0.01
}
