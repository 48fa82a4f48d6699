package sessionservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/session"
)

// DetailSampleLimit caps the samples embedded in a single session read.
const DetailSampleLimit = 1000

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

func (s *Service) Start(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	activityType activity.Type,
	notes string,
) (ses *session.Session, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if ses, err = session.New(caller.ID, activityType, notes, s.now()); err != nil {
			return err
		}
		if err := ctx.Sessions.Add(ctx.Context(), ses); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) List(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	f session.Filter,
	page domain.Page,
) (res domain.Paginated[*session.Session], outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if res, err = ctx.Sessions.List(ctx.Context(), f, page); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

type Detail struct {
	Session    *session.Session
	Activities []*activity.Activity
}

// Get returns the session with its first samples and its activities.
func (s *Service) Get(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	sessionID string,
) (detail Detail, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		ses, err := ctx.Sessions.GetByID(ctx.Context(), sessionID)
		if err != nil {
			return err
		}
		if !access.CanRead(caller, ses.UserID) {
			return session.ErrNotOwner
		}

		samples, err := ctx.Samples.List(ctx.Context(), sessionID, nil, nil, domain.Page{Limit: DetailSampleLimit})
		if err != nil {
			return err
		}
		ses.Samples = samples.Items

		activities, err := ctx.Activities.ListBySession(ctx.Context(), sessionID)
		if err != nil {
			return err
		}

		detail = Detail{Session: ses, Activities: activities}
		return ctx.Commit()
	})
	return
}

func (s *Service) Update(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	sessionID string,
	patch session.Patch,
) (ses *session.Session, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if ses, err = ctx.Sessions.GetByID(ctx.Context(), sessionID); err != nil {
			return err
		}
		if !access.CanWrite(caller, ses.UserID) {
			return session.ErrNotOwner
		}
		if err := ses.Apply(patch, s.now()); err != nil {
			return err
		}
		if err := ctx.Sessions.Persist(ctx.Context(), ses); err != nil {
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
	sessionID string,
) error {
	return uow.Atomic(ctx, func(ctx *AtomicContext) error {
		ses, err := ctx.Sessions.GetByID(ctx.Context(), sessionID)
		if err != nil {
			return err
		}
		if !access.CanWrite(caller, ses.UserID) {
			return session.ErrNotOwner
		}
		if err := ctx.Sessions.Delete(ctx.Context(), sessionID); err != nil {
			return err
		}
		s.logger.Info("session deleted", "session_id", sessionID, "user_id", caller.ID)
		return ctx.Commit()
	})
}
