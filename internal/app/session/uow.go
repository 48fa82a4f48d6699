package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/activitystorage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/samplestorage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/sessionstorage"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
)

type SessionStorage interface {
	Add(ctx context.Context, s *session.Session) error
	GetByID(ctx context.Context, sessionID string) (*session.Session, error)
	List(ctx context.Context, f session.Filter, page domain.Page) (domain.Paginated[*session.Session], error)
	Persist(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, sessionID string) error
	CollectEvents() []domain.Event
	Close() error
}

type SampleStorage interface {
	List(ctx context.Context, sessionID string, from, to *time.Time, page domain.Page) (domain.Paginated[*sensor.Sample], error)
	Close() error
}

type ActivityStorage interface {
	ListBySession(ctx context.Context, sessionID string) ([]*activity.Activity, error)
	Close() error
}

type AtomicContext struct {
	ctx        context.Context
	db         storage.DBContext
	Sessions   SessionStorage
	Samples    SampleStorage
	Activities ActivityStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	for _, c := range []interface{ Close() error }{a.Sessions, a.Samples, a.Activities} {
		if closeErr := c.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.Sessions.CollectEvents()
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:        ctx,
		db:         dbContext,
		Sessions:   sessionstorage.NewPostgresStorage(dbContext),
		Samples:    samplestorage.NewPostgresStorage(dbContext),
		Activities: activitystorage.NewPostgresStorage(dbContext),
	}, nil
}
