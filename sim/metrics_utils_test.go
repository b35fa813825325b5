package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePercentile_LinearInterpolation(t *testing.T) {
	data := []float64{5, 1, 4, 2, 3}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{50, 3},
		{95, 4.8},
		{100, 5},
		{25, 2},
	}
	for _, tt := range tests {
		got := CalculatePercentile(data, tt.p)
		assert.InDelta(t, tt.want, got, 1e-12, "p%v", tt.p)
	}
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, data, "input must not be reordered")
}

func TestCalculatePercentile_EmptyAndSingle(t *testing.T) {
	assert.Equal(t, 0.0, CalculatePercentile([]float64{}, 95))
	assert.Equal(t, 7.0, CalculatePercentile([]int{7}, 95))
}

func TestCalculateMean(t *testing.T) {
	assert.Equal(t, 0.0, CalculateMean([]float64{}))
	assert.Equal(t, 2.5, CalculateMean([]int64{1, 2, 3, 4}))
}

func TestSelect_KeepsIndicesInOrder(t *testing.T) {
	values := []float64{10, 11, 12, 13}
	got := Select(values, func(i int) bool { return i%2 == 1 })
	assert.Equal(t, []float64{11, 13}, got)
	assert.Nil(t, Select(values, func(int) bool { return false }))
}
