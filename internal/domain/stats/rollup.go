package stats

import (
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
)

const DefaultPeriod = "daily"

var (
	ErrInvalidRange  = fmt.Errorf("%w: end of range is before its start", domain.ErrValidation)
	ErrInvalidWindow = fmt.Errorf("%w: window must not be negative", domain.ErrValidation)
)

// Range is a time window inclusive on both ends.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange builds a range, substituting now for a missing bound.
func NewRange(start, end *time.Time, now time.Time) (Range, error) {
	r := Range{Start: now, End: now}
	if start != nil {
		r.Start = *start
	}
	if end != nil {
		r.End = *end
	}
	if r.End.Before(r.Start) {
		return Range{}, ErrInvalidRange
	}
	return r, nil
}

// Window returns the range covering the last days days up to now.
func Window(now time.Time, days int) (Range, error) {
	if days < 0 {
		return Range{}, ErrInvalidWindow
	}
	return Range{Start: now.AddDate(0, 0, -days), End: now}, nil
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

type Statistics struct {
	Period           string
	StartDate        time.Time
	EndDate          time.Time
	TotalDistance    float64
	TotalDuration    int
	TotalCalories    float64
	ActivitiesCount  int
	SessionsCount    int
	AverageHeartRate *float64
	MaxHeartRate     *float64
	TotalSteps       int
}

// ComputeStatistics combines activity totals with heart rate and steps pooled
// over every sample of every session. Inputs are expected to be already
// restricted to the range.
func ComputeStatistics(period string, r Range, activities []*activity.Activity, sessions []*session.Session) Statistics {
	if period == "" {
		period = DefaultPeriod
	}
	st := Statistics{
		Period:          period,
		StartDate:       r.Start,
		EndDate:         r.End,
		ActivitiesCount: len(activities),
		SessionsCount:   len(sessions),
	}

	for _, a := range activities {
		st.TotalDistance += valueOr(a.Distance)
		st.TotalDuration += valueOr(a.Duration)
		st.TotalCalories += valueOr(a.Calories)
	}

	var hr Accumulator
	for _, s := range sessions {
		for _, sample := range s.Samples {
			hr.Add(sample.HeartRate)
			st.TotalSteps += valueOr(sample.Steps)
		}
	}
	summary := hr.Summary()
	st.AverageHeartRate = summary.Avg
	st.MaxHeartRate = summary.Max

	return st
}

type SensorStats struct {
	HeartRate     Summary
	Temperature   Summary
	Battery       Summary
	TotalSteps    int
	TotalCalories float64
}

// ComputeSensorStats aggregates each field of one session's samples independently.
func ComputeSensorStats(samples []*sensor.Sample) SensorStats {
	var hr, temp, battery Accumulator
	var st SensorStats
	for _, s := range samples {
		hr.Add(s.HeartRate)
		temp.Add(s.Temperature)
		battery.Add(s.Battery)
		st.TotalSteps += valueOr(s.Steps)
		st.TotalCalories += valueOr(s.Calories)
	}
	st.HeartRate = hr.Summary()
	st.Temperature = temp.Summary()
	st.Battery = battery.Summary()
	return st
}
