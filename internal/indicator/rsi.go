package indicator

// RSI calculates the relative strength index over the closes. The output
// is aligned 1:1 with the input.
//
// Averages are simple moving averages of the per-bar gains and losses,
// not Wilder's smoothed averages. The first period indices have too
// little lookback and are emitted as exactly 0; callers must treat a
// leading 0 as "no signal", not "oversold". When the average loss over
// the window is zero, RSI is the defined boundary value 100.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	result := make([]float64, n)
	if n == 0 || period <= 0 || n <= period {
		return result
	}

	// Per-bar deltas split into gains and losses, aligned so that
	// gain[i]/loss[i] describe the move from bar i-1 to bar i.
	gain := make([]float64, n)
	loss := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain[i] = delta
		} else {
			loss[i] = -delta
		}
	}

	avgGain := SMA(gain, period)
	avgLoss := SMA(loss, period)

	// The averages become meaningful one bar after the SMA warm-up:
	// the windows ending at index period-1 still include the synthetic
	// zero delta at index 0, so the first emitted value is at period.
	for i := period; i < n; i++ {
		if avgLoss[i] == 0 {
			result[i] = 100
			continue
		}

		rs := avgGain[i] / avgLoss[i]
		result[i] = 100 - 100/(1+rs)
	}

	return result
}
