package activity

import (
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrActivityNotFound = fmt.Errorf("%w: activity not found", domain.ErrNotFound)
	ErrActivityExists   = fmt.Errorf("%w: activity already exists", domain.ErrConflict)
	ErrInvalidType      = fmt.Errorf("%w: unknown activity type", domain.ErrValidation)
	ErrNotOwner         = fmt.Errorf("%w: activity belongs to another user", domain.ErrForbidden)
)

const (
	EventCreated = "activity.created"
	EventUpdated = "activity.updated"
)

type Type string

const (
	Running  Type = "RUNNING"
	Cycling  Type = "CYCLING"
	Walking  Type = "WALKING"
	Swimming Type = "SWIMMING"
	Gym      Type = "GYM"
	Other    Type = "OTHER"
)

func (t Type) Valid() bool {
	switch t {
	case Running, Cycling, Walking, Swimming, Gym, Other:
		return true
	}
	return false
}

func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

type Activity struct {
	domain.Aggregate
	ActivityID       string
	UserID           string
	SessionID        *string
	Type             Type
	Name             string
	Description      string
	StartTime        time.Time
	EndTime          *time.Time
	Duration         *int
	Distance         *float64
	AverageSpeed     *float64
	MaxSpeed         *float64
	AverageHeartRate *int
	MaxHeartRate     *int
	Calories         *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Details holds the caller supplied part of an activity.
type Details struct {
	SessionID        *string
	Type             Type
	Name             string
	Description      string
	StartTime        time.Time
	EndTime          *time.Time
	Duration         *int
	Distance         *float64
	AverageSpeed     *float64
	MaxSpeed         *float64
	AverageHeartRate *int
	MaxHeartRate     *int
	Calories         *float64
}

func New(userID string, d Details) (*Activity, error) {
	if !d.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}
	now := time.Now().UTC()
	a := &Activity{
		ActivityID: uuid.NewString(),
		UserID:     userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	a.set(d)
	a.PushEvent(&CreatedEvent{
		At:         now,
		ActivityID: a.ActivityID,
		UserID:     userID,
		Kind:       a.Type,
	})
	return a, nil
}

func (a *Activity) set(d Details) {
	a.SessionID = d.SessionID
	a.Type = d.Type
	a.Name = d.Name
	a.Description = d.Description
	a.StartTime = d.StartTime
	a.EndTime = d.EndTime
	a.Duration = d.Duration
	a.Distance = d.Distance
	a.AverageSpeed = d.AverageSpeed
	a.MaxSpeed = d.MaxSpeed
	a.AverageHeartRate = d.AverageHeartRate
	a.MaxHeartRate = d.MaxHeartRate
	a.Calories = d.Calories
}

// Patch carries optional changes; nil fields are left as they are.
type Patch struct {
	Type             *Type
	Name             *string
	Description      *string
	EndTime          *time.Time
	Duration         *int
	Distance         *float64
	AverageSpeed     *float64
	MaxSpeed         *float64
	AverageHeartRate *int
	MaxHeartRate     *int
	Calories         *float64
}

func (a *Activity) Apply(p Patch) error {
	if p.Type != nil {
		if !p.Type.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidType, *p.Type)
		}
		a.Type = *p.Type
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.EndTime != nil {
		a.EndTime = p.EndTime
	}
	if p.Duration != nil {
		a.Duration = p.Duration
	}
	if p.Distance != nil {
		a.Distance = p.Distance
	}
	if p.AverageSpeed != nil {
		a.AverageSpeed = p.AverageSpeed
	}
	if p.MaxSpeed != nil {
		a.MaxSpeed = p.MaxSpeed
	}
	if p.AverageHeartRate != nil {
		a.AverageHeartRate = p.AverageHeartRate
	}
	if p.MaxHeartRate != nil {
		a.MaxHeartRate = p.MaxHeartRate
	}
	if p.Calories != nil {
		a.Calories = p.Calories
	}
	a.UpdatedAt = time.Now().UTC()
	a.PushEvent(&UpdatedEvent{
		At:         a.UpdatedAt,
		ActivityID: a.ActivityID,
		UserID:     a.UserID,
	})
	return nil
}

type Filter struct {
	UserID string
	Type   Type
	From   *time.Time
	To     *time.Time
}

type CreatedEvent struct {
	At         time.Time `json:"at"`
	ActivityID string    `json:"activity_id"`
	UserID     string    `json:"user_id"`
	Kind       Type      `json:"activity_type"`
}

func (e CreatedEvent) Type() string {
	return EventCreated
}

func (e CreatedEvent) PublishedAt() time.Time {
	return e.At
}

func (e CreatedEvent) Key() string {
	return e.UserID
}

type UpdatedEvent struct {
	At         time.Time `json:"at"`
	ActivityID string    `json:"activity_id"`
	UserID     string    `json:"user_id"`
}

func (e UpdatedEvent) Type() string {
	return EventUpdated
}

func (e UpdatedEvent) PublishedAt() time.Time {
	return e.At
}

func (e UpdatedEvent) Key() string {
	return e.UserID
}
