package indicator

// EMA calculates an exponential moving average with smoothing factor
// 2/(span+1), seeded with the first value. The output is aligned 1:1
// with the input: there is no warm-up gap, every index is defined.
//
// Seeding with the first value (rather than an SMA of the first span
// values) means early outputs lean on little history; that bias decays
// exponentially and is the trade-off for a gapless series.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 || span <= 0 {
		return []float64{}
	}

	alpha := 2.0 / float64(span+1)
	result := make([]float64, len(values))
	result[0] = values[0]

	for i := 1; i < len(values); i++ {
		result[i] = alpha*values[i] + (1-alpha)*result[i-1]
	}

	return result
}
