package goalservice

import (
	"context"
	"fmt"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/goalstorage"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/goal"
)

type GoalStorage interface {
	Add(ctx context.Context, g *goal.Goal) error
	GetByID(ctx context.Context, goalID string) (*goal.Goal, error)
	List(ctx context.Context, f goal.Filter) ([]*goal.Goal, error)
	Persist(ctx context.Context, g *goal.Goal) error
	Delete(ctx context.Context, goalID string) error
	CollectEvents() []domain.Event
	Close() error
}

type AtomicContext struct {
	ctx   context.Context
	db    storage.DBContext
	Goals GoalStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() error {
	if err := a.Goals.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.Goals.CollectEvents()
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:   ctx,
		db:    dbContext,
		Goals: goalstorage.NewPostgresStorage(dbContext),
	}, nil
}
