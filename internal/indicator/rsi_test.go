package indicator

import "testing"

func TestRSI_WarmupIsZero(t *testing.T) {
	closes := []float64{1, 2, 1, 2, 1, 2, 1, 2, 1, 2}
	period := 4

	rsi := RSI(closes, period)
	if len(rsi) != len(closes) {
		t.Fatalf("expected %d values, got %d", len(closes), len(rsi))
	}

	for i := 0; i < period; i++ {
		if rsi[i] != 0 {
			t.Errorf("rsi[%d] = %f, want sentinel 0 during warm-up", i, rsi[i])
		}
	}
	for i := period; i < len(rsi); i++ {
		if rsi[i] <= 0 || rsi[i] > 100 {
			t.Errorf("rsi[%d] = %f, want (0,100] past warm-up", i, rsi[i])
		}
	}
}

func TestRSI_Bounds(t *testing.T) {
	closes := []float64{50, 52, 48, 51, 47, 53, 49, 55, 45, 50, 52, 51, 48, 54, 46, 49}
	rsi := RSI(closes, 7)

	for i := 7; i < len(rsi); i++ {
		if rsi[i] < 0 || rsi[i] > 100 {
			t.Errorf("rsi[%d] = %f, out of [0,100]", i, rsi[i])
		}
	}
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	// Strictly rising closes: average loss is zero, RSI must resolve to
	// the defined boundary 100 rather than NaN.
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	rsi := RSI(closes, 3)

	for i := 3; i < len(rsi); i++ {
		if rsi[i] != 100 {
			t.Errorf("rsi[%d] = %f, want 100 on all-gain window", i, rsi[i])
		}
	}
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	closes := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	rsi := RSI(closes, 3)

	for i := 3; i < len(rsi); i++ {
		if rsi[i] != 0 {
			t.Errorf("rsi[%d] = %f, want 0 on all-loss window", i, rsi[i])
		}
	}
}

func TestRSI_BalancedWindow(t *testing.T) {
	// Alternating +1/-1 with period 2: avgGain == avgLoss == 0.5,
	// rs == 1, RSI == 50.
	closes := []float64{10, 11, 10, 11, 10, 11}
	rsi := RSI(closes, 2)

	for i := 2; i < len(rsi); i++ {
		if !almostEqual(rsi[i], 50, 1e-9) {
			t.Errorf("rsi[%d] = %f, want 50", i, rsi[i])
		}
	}
}

func TestRSI_InsufficientData(t *testing.T) {
	rsi := RSI([]float64{1, 2, 3}, 14)
	for i, v := range rsi {
		if v != 0 {
			t.Errorf("rsi[%d] = %f, want 0 when series shorter than period", i, v)
		}
	}
}
