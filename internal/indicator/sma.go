package indicator

// SMA calculates a simple moving average over a rolling window. The
// output is aligned 1:1 with the input; indexes before a full window
// exists hold 0.
func SMA(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return []float64{}
	}

	result := make([]float64, len(values))
	if len(values) < period {
		return result
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}

	return result
}
