package stats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)

	assert.Nil(t, s.Min)
	assert.Nil(t, s.Max)
	assert.Nil(t, s.Median)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 0.0, s.Sum)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min":null,"max":null,"count":0,"sum":0,"median":null}`, string(raw))
}

func TestComputeOdd(t *testing.T) {
	s := Compute([]float64{3, 1, 2})

	require.NotNil(t, s.Min)
	require.NotNil(t, s.Max)
	require.NotNil(t, s.Median)
	assert.Equal(t, 1.0, *s.Min)
	assert.Equal(t, 3.0, *s.Max)
	assert.Equal(t, 2.0, *s.Median)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 6.0, s.Sum)
}

func TestMedianEvenCountAveragesMiddleValues(t *testing.T) {
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 0.0, Median(nil))
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	samples := []float64{5, -1, 3}
	Compute(samples)
	assert.Equal(t, []float64{5, -1, 3}, samples)
}

func TestComputeOrderInvariant(t *testing.T) {
	a := Compute([]float64{1.5, -2, 8, 0, 3})
	b := Compute([]float64{8, 3, 0, 1.5, -2})

	assert.Equal(t, *a.Min, *b.Min)
	assert.Equal(t, *a.Max, *b.Max)
	assert.Equal(t, *a.Median, *b.Median)
	assert.Equal(t, a.Count, b.Count)
	assert.InDelta(t, a.Sum, b.Sum, 1e-9)
}

func TestMedianBetweenExtrema(t *testing.T) {
	inputs := [][]float64{
		{1},
		{2, 2},
		{-5, 10, 0.5},
		{9, 1, 7, 3, 5, 11},
	}
	for _, in := range inputs {
		s := Compute(in)
		assert.LessOrEqual(t, *s.Min, *s.Median, "input %v", in)
		assert.LessOrEqual(t, *s.Median, *s.Max, "input %v", in)
		assert.Equal(t, len(in), s.Count)
	}
}

func TestMean(t *testing.T) {
	mean, ok := Mean([]float64{1, 3})
	assert.True(t, ok)
	assert.Equal(t, 2.0, mean)

	mean, ok = Mean(nil)
	assert.False(t, ok)
	assert.Equal(t, 0.0, mean)
}
