package indicator

import "testing"

func TestSMA_RollingWindow(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	sma := SMA(values, 3)

	if len(sma) != len(values) {
		t.Fatalf("expected %d values, got %d", len(values), len(sma))
	}

	// No full window before index 2.
	if sma[0] != 0 || sma[1] != 0 {
		t.Errorf("warm-up values = %f, %f, want 0, 0", sma[0], sma[1])
	}

	want := []float64{2, 3, 4} // (1+2+3)/3, (2+3+4)/3, (3+4+5)/3
	for i, w := range want {
		if !almostEqual(sma[i+2], w, 1e-9) {
			t.Errorf("sma[%d] = %f, want %f", i+2, sma[i+2], w)
		}
	}
}

func TestSMA_PeriodOne(t *testing.T) {
	values := []float64{3, 1, 4}
	for i, v := range SMA(values, 1) {
		if v != values[i] {
			t.Errorf("sma[%d] = %f, want %f", i, v, values[i])
		}
	}
}

func TestSMA_Degenerate(t *testing.T) {
	if got := SMA(nil, 3); len(got) != 0 {
		t.Errorf("SMA(nil) = %v, want empty", got)
	}
	if got := SMA([]float64{1, 2}, 0); len(got) != 0 {
		t.Errorf("SMA(period=0) = %v, want empty", got)
	}

	// Shorter than one window: all warm-up.
	for i, v := range SMA([]float64{1, 2}, 5) {
		if v != 0 {
			t.Errorf("sma[%d] = %f, want 0", i, v)
		}
	}
}
