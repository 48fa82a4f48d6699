package session

import (
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = fmt.Errorf("%w: session not found", domain.ErrNotFound)
	ErrSessionExists   = fmt.Errorf("%w: session already exists", domain.ErrConflict)
	ErrNotOwner        = fmt.Errorf("%w: session belongs to another user", domain.ErrForbidden)
	ErrEndBeforeStart  = fmt.Errorf("%w: session cannot end before it starts", domain.ErrValidation)
)

const (
	EventStarted = "session.started"
	EventEnded   = "session.ended"
)

type Session struct {
	domain.Aggregate
	SessionID    string
	UserID       string
	StartTime    time.Time
	EndTime      *time.Time
	Duration     *int
	ActivityType activity.Type
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Samples is only populated by reads that ask for them.
	Samples []*sensor.Sample
	Counts  Counts
}

type Counts struct {
	Samples    int
	Activities int
}

func New(userID string, activityType activity.Type, notes string, now time.Time) (*Session, error) {
	if activityType == "" {
		activityType = activity.Other
	}
	if !activityType.Valid() {
		return nil, fmt.Errorf("%w: %q", activity.ErrInvalidType, activityType)
	}
	now = now.UTC()
	s := &Session{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		StartTime:    now,
		ActivityType: activityType,
		Notes:        notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.PushEvent(&StartedEvent{At: now, SessionID: s.SessionID, UserID: userID})
	return s, nil
}

type Patch struct {
	EndTime      *time.Time
	Duration     *int
	ActivityType *activity.Type
	Notes        *string
}

// Apply updates the session. Setting an end time without a duration derives
// the duration in seconds from the start time.
func (s *Session) Apply(p Patch, now time.Time) error {
	if p.ActivityType != nil {
		if !p.ActivityType.Valid() {
			return fmt.Errorf("%w: %q", activity.ErrInvalidType, *p.ActivityType)
		}
		s.ActivityType = *p.ActivityType
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.Duration != nil {
		s.Duration = p.Duration
	}
	ended := false
	if p.EndTime != nil {
		end := p.EndTime.UTC()
		if end.Before(s.StartTime) {
			return ErrEndBeforeStart
		}
		ended = s.EndTime == nil
		s.EndTime = &end
		if s.Duration == nil {
			d := int(end.Sub(s.StartTime).Seconds())
			s.Duration = &d
		}
	}
	s.UpdatedAt = now.UTC()
	if ended {
		s.PushEvent(&EndedEvent{At: s.UpdatedAt, SessionID: s.SessionID, UserID: s.UserID, EndTime: *s.EndTime})
	}
	return nil
}

// RecordSamples notes that count samples were appended to the session.
func (s *Session) RecordSamples(count int, source string, now time.Time) {
	s.PushEvent(&sensor.SamplesIngestedEvent{
		At:        now.UTC(),
		SessionID: s.SessionID,
		UserID:    s.UserID,
		Count:     count,
		Source:    source,
	})
}

type Filter struct {
	UserID       string
	ActivityType activity.Type
	From         *time.Time
	To           *time.Time
}

type StartedEvent struct {
	At        time.Time `json:"at"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
}

func (e StartedEvent) Type() string {
	return EventStarted
}

func (e StartedEvent) PublishedAt() time.Time {
	return e.At
}

func (e StartedEvent) Key() string {
	return e.SessionID
}

type EndedEvent struct {
	At        time.Time `json:"at"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	EndTime   time.Time `json:"end_time"`
}

func (e EndedEvent) Type() string {
	return EventEnded
}

func (e EndedEvent) PublishedAt() time.Time {
	return e.At
}

func (e EndedEvent) Key() string {
	return e.SessionID
}
