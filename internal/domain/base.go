package domain

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
)

type Event interface {
	Type() string
	PublishedAt() time.Time
}

// Keyed is implemented by events that carry a partitioning key,
// usually the id of the aggregate that emitted them.
type Keyed interface {
	Key() string
}

type NoCopy struct {
	sync.Mutex
}

type Aggregate struct {
	NoCopy
	events []Event
}

func (a *Aggregate) PopEvents() []Event {
	a.Lock()
	defer a.Unlock()
	events := a.events
	a.events = make([]Event, 0)
	return events
}

func (a *Aggregate) PushEvent(e Event) {
	a.Lock()
	a.events = append(a.events, e)
	a.Unlock()
}

// EventSource is anything that buffers domain events until they are collected.
type EventSource interface {
	PopEvents() []Event
}

type Page struct {
	Limit  int
	Offset int
}

type Paginated[T any] struct {
	Items  []T
	Total  int
	Limit  int
	Offset int
}
