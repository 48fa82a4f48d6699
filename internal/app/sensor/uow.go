package sensorservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/samplestorage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/sessionstorage"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
)

type SessionStorage interface {
	GetByID(ctx context.Context, sessionID string) (*session.Session, error)
	CollectEvents() []domain.Event
	Close() error
}

type SampleStorage interface {
	Add(ctx context.Context, sample *sensor.Sample) error
	AddBatch(ctx context.Context, samples []*sensor.Sample) (int, error)
	List(ctx context.Context, sessionID string, from, to *time.Time, page domain.Page) (domain.Paginated[*sensor.Sample], error)
	ListBySession(ctx context.Context, sessionID string) ([]*sensor.Sample, error)
	Latest(ctx context.Context, sessionID string) (*sensor.Sample, error)
	Close() error
}

type AtomicContext struct {
	ctx      context.Context
	db       storage.DBContext
	Sessions SessionStorage
	Samples  SampleStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.Sessions.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if closeErr := a.Samples.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
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
		ctx:      ctx,
		db:       dbContext,
		Sessions: sessionstorage.NewPostgresStorage(dbContext),
		Samples:  samplestorage.NewPostgresStorage(dbContext),
	}, nil
}
