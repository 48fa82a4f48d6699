package stats

import (
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRangeDefaultsToNow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	r, err := NewRange(nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, now, r.Start)
	assert.Equal(t, now, r.End)
	assert.True(t, r.Contains(now))
}

func TestNewRangeRejectsInverted(t *testing.T) {
	now := time.Now()
	start := now
	end := now.Add(-time.Hour)

	_, err := NewRange(&start, &end, now)
	require.ErrorIs(t, err, ErrInvalidRange)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestWindow(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	r, err := Window(now, 30)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), r.Start)

	_, err = Window(now, -1)
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	r := Range{Start: time.Now().Add(-time.Hour), End: time.Now()}

	st := ComputeStatistics("", r, nil, nil)

	assert.Equal(t, DefaultPeriod, st.Period)
	assert.Zero(t, st.TotalDistance)
	assert.Zero(t, st.TotalDuration)
	assert.Zero(t, st.TotalCalories)
	assert.Zero(t, st.TotalSteps)
	assert.Zero(t, st.ActivitiesCount)
	assert.Zero(t, st.SessionsCount)
	assert.Nil(t, st.AverageHeartRate)
	assert.Nil(t, st.MaxHeartRate)
}

func TestComputeStatisticsPoolsHeartRateAcrossSessions(t *testing.T) {
	r := Range{Start: time.Now().Add(-time.Hour), End: time.Now()}
	activities := []*activity.Activity{
		{Distance: ptr(5000.0), Duration: ptr(1800), Calories: ptr(300.0)},
		{Distance: nil, Duration: ptr(600), Calories: nil},
	}
	sessions := []*session.Session{
		{Samples: []*sensor.Sample{
			{Measurements: sensor.Measurements{HeartRate: ptr(100.0), Steps: ptr(10)}},
			{Measurements: sensor.Measurements{HeartRate: ptr(0.0)}},
		}},
		{Samples: []*sensor.Sample{
			{Measurements: sensor.Measurements{HeartRate: ptr(170.0), Steps: ptr(5)}},
			{Measurements: sensor.Measurements{Steps: ptr(1)}},
		}},
		{},
	}

	st := ComputeStatistics("weekly", r, activities, sessions)

	assert.Equal(t, "weekly", st.Period)
	assert.Equal(t, r.Start, st.StartDate)
	assert.Equal(t, r.End, st.EndDate)
	assert.Equal(t, 5000.0, st.TotalDistance)
	assert.Equal(t, 2400, st.TotalDuration)
	assert.Equal(t, 300.0, st.TotalCalories)
	assert.Equal(t, 2, st.ActivitiesCount)
	assert.Equal(t, 3, st.SessionsCount)
	assert.Equal(t, 16, st.TotalSteps)
	require.NotNil(t, st.MaxHeartRate)
	require.NotNil(t, st.AverageHeartRate)
	assert.Equal(t, 170.0, *st.MaxHeartRate)
	assert.InDelta(t, 90.0, *st.AverageHeartRate, 1e-9)
}

func TestComputeSensorStats(t *testing.T) {
	samples := []*sensor.Sample{
		{Measurements: sensor.Measurements{HeartRate: ptr(60.0), Temperature: ptr(36.6), Battery: ptr(90.0), Steps: ptr(12), Calories: ptr(1.5)}},
		{Measurements: sensor.Measurements{HeartRate: ptr(80.0), Battery: ptr(89.0)}},
		{Measurements: sensor.Measurements{Steps: ptr(3), Calories: ptr(0.5)}},
	}

	st := ComputeSensorStats(samples)

	assert.Equal(t, 60.0, *st.HeartRate.Min)
	assert.Equal(t, 80.0, *st.HeartRate.Max)
	assert.Equal(t, 70.0, *st.HeartRate.Avg)
	assert.Equal(t, 36.6, *st.Temperature.Avg)
	assert.Equal(t, 89.5, *st.Battery.Avg)
	assert.Equal(t, 15, st.TotalSteps)
	assert.Equal(t, 2.0, st.TotalCalories)
}

func TestComputeSensorStatsEmpty(t *testing.T) {
	st := ComputeSensorStats(nil)

	assert.Equal(t, Summary{}, st.HeartRate)
	assert.Equal(t, Summary{}, st.Temperature)
	assert.Equal(t, Summary{}, st.Battery)
	assert.Zero(t, st.TotalSteps)
	assert.Zero(t, st.TotalCalories)
}
