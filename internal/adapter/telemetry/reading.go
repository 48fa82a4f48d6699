// Package telemetry defines the JSON format devices and clients use to
// submit sensor readings.
package telemetry

import (
	"time"

	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/relvacode/iso8601"
)

// Reading is a single device tick. Every measurement is optional; when
// present it must be within its physical range.
type Reading struct {
	Timestamp   *iso8601.Time `json:"timestamp,omitempty"`
	HeartRate   *float64      `json:"heart_rate,omitempty" validate:"omitempty,min=0,max=250"`
	Temperature *float64      `json:"temperature,omitempty" validate:"omitempty,min=30,max=45"`
	SpO2        *float64      `json:"spo2,omitempty" validate:"omitempty,min=0,max=100"`
	AccelX      *float64      `json:"accel_x,omitempty"`
	AccelY      *float64      `json:"accel_y,omitempty"`
	AccelZ      *float64      `json:"accel_z,omitempty"`
	GyroX       *float64      `json:"gyro_x,omitempty"`
	GyroY       *float64      `json:"gyro_y,omitempty"`
	GyroZ       *float64      `json:"gyro_z,omitempty"`
	Latitude    *float64      `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64      `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Altitude    *float64      `json:"altitude,omitempty"`
	ECGValue    *float64      `json:"ecg_value,omitempty"`
	Steps       *int          `json:"steps,omitempty" validate:"omitempty,min=0"`
	Calories    *float64      `json:"calories,omitempty" validate:"omitempty,min=0"`
	Battery     *float64      `json:"battery,omitempty" validate:"omitempty,min=0,max=100"`
}

// Batch is a group of readings submitted in one request or message.
// Ranges are not checked for batches.
type Batch struct {
	Data []Reading `json:"data" validate:"required,min=1"`
}

func (r Reading) ToDomain() sensor.Reading {
	var ts *time.Time
	if r.Timestamp != nil {
		t := r.Timestamp.Time.UTC()
		ts = &t
	}
	return sensor.Reading{
		Timestamp: ts,
		Measurements: sensor.Measurements{
			HeartRate:   r.HeartRate,
			Temperature: r.Temperature,
			SpO2:        r.SpO2,
			AccelX:      r.AccelX,
			AccelY:      r.AccelY,
			AccelZ:      r.AccelZ,
			GyroX:       r.GyroX,
			GyroY:       r.GyroY,
			GyroZ:       r.GyroZ,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Altitude:    r.Altitude,
			ECGValue:    r.ECGValue,
			Steps:       r.Steps,
			Calories:    r.Calories,
			Battery:     r.Battery,
		},
	}
}

func (b Batch) ToDomain() []sensor.Reading {
	readings := make([]sensor.Reading, 0, len(b.Data))
	for _, r := range b.Data {
		readings = append(readings, r.ToDomain())
	}
	return readings
}

// Sample is the JSON representation of a stored sample.
type Sample struct {
	SampleID    string    `json:"sample_id"`
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"`
	HeartRate   *float64  `json:"heart_rate"`
	Temperature *float64  `json:"temperature"`
	SpO2        *float64  `json:"spo2"`
	AccelX      *float64  `json:"accel_x"`
	AccelY      *float64  `json:"accel_y"`
	AccelZ      *float64  `json:"accel_z"`
	GyroX       *float64  `json:"gyro_x"`
	GyroY       *float64  `json:"gyro_y"`
	GyroZ       *float64  `json:"gyro_z"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Altitude    *float64  `json:"altitude"`
	ECGValue    *float64  `json:"ecg_value"`
	Steps       *int      `json:"steps"`
	Calories    *float64  `json:"calories"`
	Battery     *float64  `json:"battery"`
}

func FromDomain(s *sensor.Sample) Sample {
	return Sample{
		SampleID:    s.SampleID,
		SessionID:   s.SessionID,
		Timestamp:   s.Timestamp,
		HeartRate:   s.HeartRate,
		Temperature: s.Temperature,
		SpO2:        s.SpO2,
		AccelX:      s.AccelX,
		AccelY:      s.AccelY,
		AccelZ:      s.AccelZ,
		GyroX:       s.GyroX,
		GyroY:       s.GyroY,
		GyroZ:       s.GyroZ,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		Altitude:    s.Altitude,
		ECGValue:    s.ECGValue,
		Steps:       s.Steps,
		Calories:    s.Calories,
		Battery:     s.Battery,
	}
}
