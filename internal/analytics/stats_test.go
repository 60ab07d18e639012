package analytics

import (
	"math"
	"testing"
)

func TestPercentileLinearInterpolation(t *testing.T) {
	sample := []float64{100, 200}

	p50 := percentile(sample, 0.50)
	if p50 == nil || *p50 != 150 {
		t.Fatalf("expected p50=150, got %v", p50)
	}

	p95 := percentile(sample, 0.95)
	if p95 == nil || math.Abs(*p95-195) > 1e-9 {
		t.Fatalf("expected p95=195, got %v", p95)
	}
}

func TestPercentileSmallSamplesAreNull(t *testing.T) {
	if percentile(nil, 0.5) != nil {
		t.Fatal("expected nil percentile for empty sample")
	}
	if percentile([]float64{42}, 0.99) != nil {
		t.Fatal("expected nil percentile for single-element sample")
	}
}

func TestPercentileOrderingInvariant(t *testing.T) {
	sample := []float64{900, 120, 4000, 333, 87, 1500, 61}

	p50 := percentile(sample, 0.50)
	p95 := percentile(sample, 0.95)
	p99 := percentile(sample, 0.99)

	if p50 == nil || p95 == nil || p99 == nil {
		t.Fatal("expected all percentiles to be present")
	}
	if *p50 > *p95 || *p95 > *p99 {
		t.Fatalf("percentile ordering violated: p50=%f p95=%f p99=%f", *p50, *p95, *p99)
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	sample := []float64{3, 1, 2}
	percentile(sample, 0.5)
	if sample[0] != 3 || sample[1] != 1 || sample[2] != 2 {
		t.Fatalf("input sample was mutated: %v", sample)
	}
}

func TestPearsonUndefinedCases(t *testing.T) {
	if pearson([]float64{1}, []float64{2}) != nil {
		t.Fatal("expected nil for a single pair")
	}
	if pearson([]float64{2, 2, 2}, []float64{1, 3, 5}) != nil {
		t.Fatal("expected nil for zero variance")
	}
}

func TestPearsonPerfectCorrelation(t *testing.T) {
	r := pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	if r == nil || math.Abs(*r-1) > 1e-9 {
		t.Fatalf("expected r=1, got %v", r)
	}
}

func TestPctZeroDenominator(t *testing.T) {
	if got := pct(5, 0); got != 0 {
		t.Fatalf("expected 0 for zero denominator, got %f", got)
	}
	if got := pct(7, 10); got != 70.0 {
		t.Fatalf("expected 70.0, got %f", got)
	}
	if got := pct(1, 3); got != 33.3 {
		t.Fatalf("expected 33.3, got %f", got)
	}
}
