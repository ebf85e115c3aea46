package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s, ok := Summarize([]float64{5, 1, 4, 2, 3})
	require.True(t, ok)
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3.0, s.Mean, 1e-3)
	assert.InDelta(t, 3.0, s.Median, 1e-3)
	assert.InDelta(t, 1.0, s.Min, 1e-3)
	assert.InDelta(t, 5.0, s.Max, 1e-3)
	assert.InDelta(t, 1.41421, s.StdDev, 1e-4)
	assert.InDelta(t, 2.0, s.P25, 1e-9)
	assert.InDelta(t, 4.8, s.P95, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	_, ok := Summarize(nil)
	assert.False(t, ok)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Percentile(sorted, 0), 1e-3)
	assert.InDelta(t, 3.0, Percentile(sorted, 50), 1e-3)
	assert.InDelta(t, 5.0, Percentile(sorted, 100), 1e-3)
	assert.InDelta(t, 5.0, Percentile(sorted, 150), 1e-3)
	assert.Equal(t, 7.0, Percentile([]float64{7}, 30))
	assert.Equal(t, 0.0, Percentile(nil, 30))
}

func TestBDRateSameCurve(t *testing.T) {
	curve := []RatePoint{{1000, 30}, {2000, 35}, {4000, 40}, {8000, 45}}
	bd, ok := BDRate(curve, curve)
	require.True(t, ok)
	assert.InDelta(t, 0.0, bd, 0.1)
}

func TestBDRateCheaperCurveIsNegative(t *testing.T) {
	ref := []RatePoint{{1000, 30}, {2000, 35}, {4000, 40}, {8000, 45}}
	test := []RatePoint{{800, 30}, {1600, 35}, {3200, 40}, {6400, 45}}
	bd, ok := BDRate(ref, test)
	require.True(t, ok)
	assert.Less(t, bd, 0.0)
	// a uniform 20% rate saving is exactly -20%
	assert.InDelta(t, -20.0, bd, 1e-9)
}

func TestBDRateRejectsShortOrDisjoint(t *testing.T) {
	short := []RatePoint{{1, 1}, {2, 2}, {3, 3}}
	long := []RatePoint{{1, 1}, {2, 2}, {3, 3}, {4, 4}}
	_, ok := BDRate(short, long)
	assert.False(t, ok)

	high := []RatePoint{{1, 10}, {2, 20}, {3, 30}, {4, 40}}
	low := []RatePoint{{1, 50}, {2, 60}, {3, 70}, {4, 80}}
	_, ok = BDRate(high, low)
	assert.False(t, ok)
}
