package sensor

import (
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrEmptyBatch = fmt.Errorf("%w: batch contains no readings", domain.ErrValidation)
)

const (
	EventSamplesIngested = "sensor.samples_ingested"
)

// Measurements are the optional fields of a single device tick.
// A nil field means the device did not report it, never zero.
type Measurements struct {
	HeartRate   *float64
	Temperature *float64
	SpO2        *float64
	AccelX      *float64
	AccelY      *float64
	AccelZ      *float64
	GyroX       *float64
	GyroY       *float64
	GyroZ       *float64
	Latitude    *float64
	Longitude   *float64
	Altitude    *float64
	ECGValue    *float64
	Steps       *int
	Calories    *float64
	Battery     *float64
}

// Reading is a device tick as received, before it is bound to a session.
type Reading struct {
	Timestamp *time.Time
	Measurements
}

type Sample struct {
	SampleID  string
	SessionID string
	Timestamp time.Time
	Measurements
}

// NewSample binds a reading to a session. Readings without a timestamp are
// stamped with now.
func NewSample(sessionID string, r Reading, now time.Time) *Sample {
	ts := now
	if r.Timestamp != nil {
		ts = *r.Timestamp
	}
	return &Sample{
		SampleID:     uuid.NewString(),
		SessionID:    sessionID,
		Timestamp:    ts.UTC(),
		Measurements: r.Measurements,
	}
}

func NewBatch(sessionID string, readings []Reading, now time.Time) ([]*Sample, error) {
	if len(readings) == 0 {
		return nil, ErrEmptyBatch
	}
	samples := make([]*Sample, 0, len(readings))
	for _, r := range readings {
		samples = append(samples, NewSample(sessionID, r, now))
	}
	return samples, nil
}

type SamplesIngestedEvent struct {
	At        time.Time `json:"at"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Count     int       `json:"count"`
	Source    string    `json:"source"`
}

func (e SamplesIngestedEvent) Type() string {
	return EventSamplesIngested
}

func (e SamplesIngestedEvent) PublishedAt() time.Time {
	return e.At
}

func (e SamplesIngestedEvent) Key() string {
	return e.SessionID
}
