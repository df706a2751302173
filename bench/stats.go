// Package bench implements the measurement engine shared by every
// loader variant: a duration-bounded, epoch-structured sampling loop
// over a pluggable batch source, and the end-of-run reduction of
// per-batch latencies into summary statistics.
package bench

import (
	"math"
	"sort"
)

// Accumulator collects per-batch latency samples in completion order.
// It is single-owner; a run appends from one goroutine and reduces
// once at the end.
type Accumulator struct {
	samples []float64
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Record appends one latency sample in milliseconds.
func (a *Accumulator) Record(ms float64) {
	a.samples = append(a.samples, ms)
}

// Len returns the number of recorded samples.
func (a *Accumulator) Len() int {
	return len(a.samples)
}

// Summary holds the reduced latency statistics of one run, all in
// milliseconds.
type Summary struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	P50  float64
	P95  float64
	P99  float64
}

// Summarize reduces the recorded samples. An empty run is treated as a
// single zero-valued sample so degenerate measurements produce zeroed
// statistics instead of failing. Percentiles index the ascending sort
// at floor(n*q); p99 falls back to the maximum below 100 samples,
// where the index would not be statistically meaningful.
func (a *Accumulator) Summarize() Summary {
	samples := a.samples
	if len(samples) == 0 {
		samples = []float64{0}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	n := len(sorted)

	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(n)

	var std float64
	if n >= 2 {
		var sq float64
		for _, v := range samples {
			d := v - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	p99 := sorted[n-1]
	if n >= 100 {
		p99 = sorted[int(float64(n)*0.99)]
	}

	return Summary{
		Mean: mean,
		Std:  std,
		Min:  sorted[0],
		Max:  sorted[n-1],
		P50:  sorted[percentileIndex(n, 0.50)],
		P95:  sorted[percentileIndex(n, 0.95)],
		P99:  p99,
	}
}

func percentileIndex(n int, q float64) int {
	i := int(float64(n) * q)
	if i >= n {
		i = n - 1
	}
	return i
}
