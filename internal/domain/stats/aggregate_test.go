package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Aggregate(nil))
	assert.Equal(t, Summary{}, Aggregate([]*float64{}))
}

func TestAggregateOnlyAbsent(t *testing.T) {
	assert.Equal(t, Summary{}, Aggregate([]*float64{nil, nil, nil}))
}

func TestAggregate(t *testing.T) {
	s := Aggregate([]*float64{ptr(70.0), ptr(80.0), ptr(90.0)})

	require.NotNil(t, s.Min)
	require.NotNil(t, s.Max)
	require.NotNil(t, s.Avg)
	assert.Equal(t, 70.0, *s.Min)
	assert.Equal(t, 90.0, *s.Max)
	assert.Equal(t, 80.0, *s.Avg)
}

func TestAggregateSkipsAbsentAndKeepsZero(t *testing.T) {
	s := Aggregate([]*float64{nil, ptr(0.0), nil, ptr(10.0)})

	assert.Equal(t, 0.0, *s.Min)
	assert.Equal(t, 10.0, *s.Max)
	assert.Equal(t, 5.0, *s.Avg)
}

func TestAggregateTakesOutOfRangeValuesAsIs(t *testing.T) {
	s := Aggregate([]*float64{ptr(-20.0), ptr(900.0)})

	assert.Equal(t, -20.0, *s.Min)
	assert.Equal(t, 900.0, *s.Max)
	assert.Equal(t, 440.0, *s.Avg)
}

func TestAccumulatorLargeInput(t *testing.T) {
	var acc Accumulator
	for i := 1; i <= 100000; i++ {
		v := float64(i)
		acc.Add(&v)
		acc.Add(nil)
	}

	s := acc.Summary()
	assert.Equal(t, 100000, acc.Count())
	assert.Equal(t, 1.0, *s.Min)
	assert.Equal(t, 100000.0, *s.Max)
	assert.Equal(t, 50000.5, *s.Avg)
}
