package activityservice

import (
	"context"
	"log/slog"

	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/session"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Create records an activity for caller. A linked session must belong to
// caller as well.
func (s *Service) Create(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	details activity.Details,
) (a *activity.Activity, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if details.SessionID != nil {
			ses, err := ctx.Sessions.GetByID(ctx.Context(), *details.SessionID)
			if err != nil {
				return err
			}
			if !access.CanWrite(caller, ses.UserID) {
				return session.ErrNotOwner
			}
		}

		var err error
		if a, err = activity.New(caller.ID, details); err != nil {
			return err
		}
		if err := ctx.Activities.Add(ctx.Context(), a); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) List(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	f activity.Filter,
	page domain.Page,
) (res domain.Paginated[*activity.Activity], outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if res, err = ctx.Activities.List(ctx.Context(), f, page); err != nil {
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
	activityID string,
) (a *activity.Activity, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if a, err = ctx.Activities.GetByID(ctx.Context(), activityID); err != nil {
			return err
		}
		if !access.CanRead(caller, a.UserID) {
			return activity.ErrNotOwner
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) Update(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	activityID string,
	patch activity.Patch,
) (a *activity.Activity, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if a, err = ctx.Activities.GetByID(ctx.Context(), activityID); err != nil {
			return err
		}
		if !access.CanWrite(caller, a.UserID) {
			return activity.ErrNotOwner
		}
		if err := a.Apply(patch); err != nil {
			return err
		}
		if err := ctx.Activities.Persist(ctx.Context(), a); err != nil {
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
	activityID string,
) error {
	return uow.Atomic(ctx, func(ctx *AtomicContext) error {
		a, err := ctx.Activities.GetByID(ctx.Context(), activityID)
		if err != nil {
			return err
		}
		if !access.CanWrite(caller, a.UserID) {
			return activity.ErrNotOwner
		}
		if err := ctx.Activities.Delete(ctx.Context(), activityID); err != nil {
			return err
		}
		s.logger.Info("activity deleted", "activity_id", activityID, "user_id", caller.ID)
		return ctx.Commit()
	})
}
