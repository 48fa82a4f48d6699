package goalservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/goal"
	"github.com/burenotti/wearable_backend/internal/observability"
)

type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func New(logger *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{logger: logger, now: now}
}

func (s *Service) Create(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	details goal.Details,
) (g *goal.Goal, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if g, err = goal.New(caller.ID, details, s.now()); err != nil {
			return err
		}
		if err := ctx.Goals.Add(ctx.Context(), g); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) List(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	f goal.Filter,
) (goals []*goal.Goal, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if goals, err = ctx.Goals.List(ctx.Context(), f); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) Get(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	goalID string,
) (g *goal.Goal, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if g, err = ctx.Goals.GetByID(ctx.Context(), goalID); err != nil {
			return err
		}
		if !access.CanRead(caller, g.UserID) {
			return goal.ErrNotOwner
		}
		return ctx.Commit()
	})
	return
}

// Update applies patch to a goal owned by caller. A new current value is
// run through the progress evaluator.
func (s *Service) Update(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	goalID string,
	patch goal.Patch,
) (g *goal.Goal, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if g, err = ctx.Goals.GetByID(ctx.Context(), goalID); err != nil {
			return err
		}
		if !access.CanWrite(caller, g.UserID) {
			return goal.ErrNotOwner
		}
		if err := g.Apply(patch, s.now()); err != nil {
			return err
		}
		if err := ctx.Goals.Persist(ctx.Context(), g); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) Delete(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	goalID string,
) error {
	return uow.Atomic(ctx, func(ctx *AtomicContext) error {
		g, err := ctx.Goals.GetByID(ctx.Context(), goalID)
		if err != nil {
			return err
		}
		if !access.CanWrite(caller, g.UserID) {
			return goal.ErrNotOwner
		}
		if err := ctx.Goals.Delete(ctx.Context(), goalID); err != nil {
			return err
		}
		return ctx.Commit()
	})
}

// OnCompleted is a message bus handler for goal.completed events.
func (s *Service) OnCompleted(e domain.Event) error {
	completed, ok := e.(*goal.CompletedEvent)
	if !ok {
		return nil
	}
	observability.GoalsCompleted.Inc()
	s.logger.Info("goal completed",
		"goal_id", completed.GoalID,
		"user_id", completed.UserID,
		"value", completed.Value,
	)
	return nil
}
