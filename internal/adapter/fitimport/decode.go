// Package fitimport converts Garmin FIT activity files into sensor readings.
package fitimport

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/tormoder/fit"
)

var (
	ErrInvalidFile = fmt.Errorf("%w: not a FIT activity file", domain.ErrValidation)
	ErrNoRecords   = fmt.Errorf("%w: FIT file contains no records", domain.ErrValidation)
)

const invalidTemperature = math.MaxInt8

// Decode reads a FIT activity file and returns one reading per record
// message, in file order.
func Decode(r io.Reader) ([]sensor.Reading, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, errors.Join(ErrInvalidFile, err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, errors.Join(ErrInvalidFile, err)
	}

	readings := make([]sensor.Reading, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec == nil {
			continue
		}
		readings = append(readings, recordToReading(rec))
	}
	if len(readings) == 0 {
		return nil, ErrNoRecords
	}
	return readings, nil
}

func recordToReading(rec *fit.RecordMsg) sensor.Reading {
	var r sensor.Reading

	if ts := rec.Timestamp; !ts.IsZero() && !fit.IsBaseTime(ts) {
		utc := ts.UTC()
		r.Timestamp = &utc
	}
	if rec.HeartRate != math.MaxUint8 {
		r.HeartRate = ptr(float64(rec.HeartRate))
	}
	if rec.Temperature != invalidTemperature {
		r.Temperature = ptr(float64(rec.Temperature))
	}
	if !rec.PositionLat.Invalid() && !rec.PositionLong.Invalid() {
		r.Latitude = ptr(rec.PositionLat.Degrees())
		r.Longitude = ptr(rec.PositionLong.Degrees())
	}
	if alt := rec.GetEnhancedAltitudeScaled(); finite(alt) {
		r.Altitude = ptr(alt)
	} else if alt := rec.GetAltitudeScaled(); finite(alt) {
		r.Altitude = ptr(alt)
	}
	if rec.Calories != math.MaxUint16 {
		r.Calories = ptr(float64(rec.Calories))
	}
	return r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ptr(v float64) *float64 {
	return &v
}
