package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQualityRange(t *testing.T) {
	tests := []struct {
		in   string
		want []float64
	}{
		{"10:20:50", []float64{10, 30, 50}},
		{"10:20:55", []float64{10, 30, 50}},
		{"0.5:0.25:1", []float64{0.5, 0.75, 1}},
		{"75", []float64{75}},
		{"30, 60,90", []float64{30, 60, 90}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQualityRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQualityRangeDefault(t *testing.T) {
	got, err := ParseQualityRange(DefaultQualityRange)
	require.NoError(t, err)
	assert.Len(t, got, 45)
	assert.Equal(t, 10.0, got[0])
	assert.Equal(t, 98.0, got[len(got)-1])
}

func TestParseQualityRangeErrors(t *testing.T) {
	for _, in := range []string{"", "10:0:50", "50:1:10", "1:2", "a:1:2", "10,x"} {
		_, err := ParseQualityRange(in)
		assert.Error(t, err, in)
	}
}
