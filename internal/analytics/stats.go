package analytics

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// percentile interpolates linearly at rank p*(n-1) over a sorted copy of the
// sample. Samples with fewer than two values yield nil so callers can report
// an explicit null rather than a fabricated zero.
func percentile(sample []float64, p float64) *float64 {
	if len(sample) < 2 {
		return nil
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		v := sorted[lower]
		return &v
	}

	frac := rank - float64(lower)
	v := sorted[lower] + frac*(sorted[upper]-sorted[lower])
	return &v
}

func mean(sample []float64) *float64 {
	if len(sample) == 0 {
		return nil
	}
	v, err := stats.Mean(sample)
	if err != nil {
		return nil
	}
	return &v
}

func median(sample []float64) *float64 {
	if len(sample) == 0 {
		return nil
	}
	v, err := stats.Median(sample)
	if err != nil {
		return nil
	}
	return &v
}

// pearson returns nil when the coefficient is undefined: fewer than two pairs
// or zero variance in either series. stats.Pearson reports 0 for a constant
// series, so the variance check has to happen here.
func pearson(a, b []float64) *float64 {
	if len(a) != len(b) || len(a) < 2 {
		return nil
	}
	if allEqual(a) || allEqual(b) {
		return nil
	}
	v, err := stats.Pearson(a, b)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

func allEqual(sample []float64) bool {
	for _, v := range sample[1:] {
		if v != sample[0] {
			return false
		}
	}
	return true
}

// round1 rounds to one decimal; used for every percentage in the response
// schemas (0-100 scale).
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round1p(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round1(*v)
	return &r
}

// round2 rounds to two decimals; used for 1-5 scale scores.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func pct(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return round1(float64(numerator) / float64(denominator) * 100)
}
