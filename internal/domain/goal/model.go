package goal

import (
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/google/uuid"
)

var (
	ErrGoalNotFound  = fmt.Errorf("%w: goal not found", domain.ErrNotFound)
	ErrGoalExists    = fmt.Errorf("%w: goal already exists", domain.ErrConflict)
	ErrInvalidTarget = fmt.Errorf("%w: target value must be positive", domain.ErrValidation)
	ErrInvalidStatus = fmt.Errorf("%w: unknown goal status", domain.ErrValidation)
	ErrNotOwner      = fmt.Errorf("%w: goal belongs to another user", domain.ErrForbidden)
)

const (
	EventCreated   = "goal.created"
	EventCompleted = "goal.completed"
)

type Status string

const (
	Pending    Status = "PENDING"
	InProgress Status = "IN_PROGRESS"
	Completed  Status = "COMPLETED"
)

func (s Status) Valid() bool {
	return s == Pending || s == InProgress || s == Completed
}

type Goal struct {
	domain.Aggregate `diff:"-"`
	GoalID           string        `diff:"-"`
	UserID           string        `diff:"-"`
	Title            string        `diff:"title"`
	Description      string        `diff:"description"`
	TargetValue      float64       `diff:"target_value"`
	CurrentValue     float64       `diff:"current_value"`
	Unit             string        `diff:"unit"`
	ActivityType     activity.Type `diff:"activity_type"`
	Status           Status        `diff:"status"`
	TargetDate       time.Time     `diff:"-"`
	CreatedAt        time.Time     `diff:"-"`
	UpdatedAt        time.Time     `diff:"-"`
}

type Details struct {
	Title        string
	Description  string
	TargetValue  float64
	Unit         string
	TargetDate   time.Time
	ActivityType activity.Type
}

func New(userID string, d Details, now time.Time) (*Goal, error) {
	if d.TargetValue <= 0 {
		return nil, ErrInvalidTarget
	}
	if d.ActivityType != "" && !d.ActivityType.Valid() {
		return nil, fmt.Errorf("%w: %q", activity.ErrInvalidType, d.ActivityType)
	}
	now = now.UTC()
	g := &Goal{
		GoalID:       uuid.NewString(),
		UserID:       userID,
		Title:        d.Title,
		Description:  d.Description,
		TargetValue:  d.TargetValue,
		Unit:         d.Unit,
		ActivityType: d.ActivityType,
		Status:       Pending,
		TargetDate:   d.TargetDate.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	g.PushEvent(&CreatedEvent{At: now, GoalID: g.GoalID, UserID: userID})
	return g, nil
}

// ProgressPct is the current value as a percentage of the target.
func (g *Goal) ProgressPct() float64 {
	return g.CurrentValue / g.TargetValue * 100
}

// ApplyProgress records a new current value and moves the status forward.
// Reaching the target completes the goal, any positive progress marks it in
// progress, and zero or negative progress leaves the status untouched.
// There is no transition back to PENDING.
func (g *Goal) ApplyProgress(value float64) {
	prev := g.Status
	g.CurrentValue = value

	pct := g.ProgressPct()
	switch {
	case pct >= 100:
		g.Status = Completed
	case pct > 0:
		g.Status = InProgress
	}

	if g.Status == Completed && prev != Completed {
		g.PushEvent(&CompletedEvent{
			At:          time.Now().UTC(),
			GoalID:      g.GoalID,
			UserID:      g.UserID,
			TargetValue: g.TargetValue,
			Value:       value,
		})
	}
}

type Patch struct {
	Title        *string
	Description  *string
	TargetValue  *float64
	CurrentValue *float64
	Unit         *string
	TargetDate   *time.Time
	ActivityType *activity.Type
	Status       *Status
}

// Apply updates the goal. A new current value is evaluated against the target
// stored before this patch.
func (g *Goal) Apply(p Patch, now time.Time) error {
	if p.TargetValue != nil && *p.TargetValue <= 0 {
		return ErrInvalidTarget
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	if p.ActivityType != nil && *p.ActivityType != "" && !p.ActivityType.Valid() {
		return fmt.Errorf("%w: %q", activity.ErrInvalidType, *p.ActivityType)
	}

	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.CurrentValue != nil {
		g.ApplyProgress(*p.CurrentValue)
	}
	if p.TargetValue != nil {
		g.TargetValue = *p.TargetValue
	}
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Unit != nil {
		g.Unit = *p.Unit
	}
	if p.TargetDate != nil {
		g.TargetDate = p.TargetDate.UTC()
	}
	if p.ActivityType != nil {
		g.ActivityType = *p.ActivityType
	}
	g.UpdatedAt = now.UTC()
	return nil
}

type Filter struct {
	UserID       string
	Status       Status
	ActivityType activity.Type
}

type CreatedEvent struct {
	At     time.Time `json:"at"`
	GoalID string    `json:"goal_id"`
	UserID string    `json:"user_id"`
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

type CompletedEvent struct {
	At          time.Time `json:"at"`
	GoalID      string    `json:"goal_id"`
	UserID      string    `json:"user_id"`
	TargetValue float64   `json:"target_value"`
	Value       float64   `json:"value"`
}

func (e CompletedEvent) Type() string {
	return EventCompleted
}

func (e CompletedEvent) PublishedAt() time.Time {
	return e.At
}

func (e CompletedEvent) Key() string {
	return e.UserID
}
