package activityservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/activitystorage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/sessionstorage"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/session"
)

type ActivityStorage interface {
	Add(ctx context.Context, a *activity.Activity) error
	GetByID(ctx context.Context, activityID string) (*activity.Activity, error)
	List(ctx context.Context, f activity.Filter, page domain.Page) (domain.Paginated[*activity.Activity], error)
	Persist(ctx context.Context, a *activity.Activity) error
	Delete(ctx context.Context, activityID string) error
	CollectEvents() []domain.Event
	Close() error
}

type SessionStorage interface {
	GetByID(ctx context.Context, sessionID string) (*session.Session, error)
	Close() error
}

type AtomicContext struct {
	ctx        context.Context
	db         storage.DBContext
	Activities ActivityStorage
	Sessions   SessionStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.Activities.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if closeErr := a.Sessions.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.Activities.CollectEvents()
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:        ctx,
		db:         dbContext,
		Activities: activitystorage.NewPostgresStorage(dbContext),
		Sessions:   sessionstorage.NewPostgresStorage(dbContext),
	}, nil
}
