// Package stats holds descriptive statistics for codec comparison runs.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one set of measurements.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P5     float64 `json:"p5"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
}

// Summarize reports false for an empty input. StdDev is the population
// standard deviation.
func Summarize(values []float64) (Summary, bool) {
	if len(values) == 0 {
		return Summary{}, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Summary{
		Count:  len(sorted),
		Mean:   mean,
		Median: Percentile(sorted, 50),
		StdDev: std,
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		P5:     Percentile(sorted, 5),
		P25:    Percentile(sorted, 25),
		P75:    Percentile(sorted, 75),
		P95:    Percentile(sorted, 95),
	}, true
}

// Percentile linearly interpolates between closest ranks of an ascending
// slice. p is clamped to [0, 100].
func Percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	p = math.Max(0, math.Min(100, p)) / 100
	idx := p * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// RatePoint is one (rate, quality) sample of an R-D curve.
type RatePoint struct {
	Rate    float64 `json:"rate"`
	Quality float64 `json:"quality"`
}

// minBDPoints is the minimum curve length for a Bjontegaard delta.
const minBDPoints = 4

// BDRate is the Bjontegaard delta rate in percent: the average rate
// difference of test against reference over their overlapping quality range.
// Negative means test needs fewer bits. It reports false for curves shorter
// than four points or without quality overlap.
func BDRate(reference, test []RatePoint) (float64, bool) {
	if len(reference) < minBDPoints || len(test) < minBDPoints {
		return 0, false
	}
	ref := sortedByQuality(reference)
	tst := sortedByQuality(test)

	minQ := math.Max(ref[0].Quality, tst[0].Quality)
	maxQ := math.Min(ref[len(ref)-1].Quality, tst[len(tst)-1].Quality)
	if minQ >= maxQ {
		return 0, false
	}

	avgRef := integrateLogRate(ref, minQ, maxQ) / (maxQ - minQ)
	avgTest := integrateLogRate(tst, minQ, maxQ) / (maxQ - minQ)
	return (math.Exp(avgTest-avgRef) - 1) * 100, true
}

func sortedByQuality(points []RatePoint) []RatePoint {
	out := append([]RatePoint(nil), points...)
	sort.Slice(out, func(i, j int) bool { return out[i].Quality < out[j].Quality })
	return out
}

// integrateLogRate is a trapezoidal integral of ln(rate) over quality,
// clipped to [minQ, maxQ].
func integrateLogRate(points []RatePoint, minQ, maxQ float64) float64 {
	area := 0.0
	for i := 0; i+1 < len(points); i++ {
		q0, q1 := points[i].Quality, points[i+1].Quality
		if q1 < minQ || q0 > maxQ {
			continue
		}
		r0, r1 := math.Log(points[i].Rate), math.Log(points[i+1].Rate)
		q0 = math.Max(q0, minQ)
		q1 = math.Min(q1, maxQ)
		area += (r0 + r1) / 2 * (q1 - q0)
	}
	return area
}
