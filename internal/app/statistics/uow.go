package statsservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/activitystorage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/sessionstorage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/userstorage"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/session"
)

type ActivityStorage interface {
	ListInRange(ctx context.Context, userID string, from, to time.Time) ([]*activity.Activity, error)
	Close() error
}

type SessionStorage interface {
	ListWithSamples(ctx context.Context, userID string, from, to time.Time) ([]*session.Session, error)
	Close() error
}

type UserStorage interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Close() error
}

type AtomicContext struct {
	ctx        context.Context
	db         storage.DBContext
	Activities ActivityStorage
	Sessions   SessionStorage
	Users      UserStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	for _, c := range []interface{ Close() error }{a.Activities, a.Sessions, a.Users} {
		if closeErr := c.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

// CollectEvents returns nothing: statistics are read only.
func (a *AtomicContext) CollectEvents() []domain.Event {
	return nil
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:        ctx,
		db:         dbContext,
		Activities: activitystorage.NewPostgresStorage(dbContext),
		Sessions:   sessionstorage.NewPostgresStorage(dbContext),
		Users:      userstorage.NewPostgresStorage(dbContext, nil),
	}, nil
}
