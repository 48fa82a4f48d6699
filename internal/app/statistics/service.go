package statsservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain/stats"
	"github.com/burenotti/wearable_backend/internal/domain/user"
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

// ComputeStatistics rolls up the subject's activities and session samples
// within [start, end]. Missing bounds default to the current time.
func (s *Service) ComputeStatistics(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	subjectID string,
	period string,
	start, end *time.Time,
) (st stats.Statistics, outErr error) {
	defer observability.ObserveSince("statistics", time.Now())

	r, err := stats.NewRange(start, end, s.now())
	if err != nil {
		return st, err
	}

	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		exists, err := ctx.Users.Exists(ctx.Context(), subjectID)
		if err != nil {
			return err
		}
		if !exists {
			return user.ErrUserNotFound
		}

		activities, err := ctx.Activities.ListInRange(ctx.Context(), subjectID, r.Start, r.End)
		if err != nil {
			return err
		}
		sessions, err := ctx.Sessions.ListWithSamples(ctx.Context(), subjectID, r.Start, r.End)
		if err != nil {
			return err
		}

		st = stats.ComputeStatistics(period, r, activities, sessions)
		return ctx.Commit()
	})
	return
}

// ComputeDailySeries buckets the subject's activities of the last days days
// by calendar date.
func (s *Service) ComputeDailySeries(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	subjectID string,
	days int,
) (series []stats.DailyBucket, outErr error) {
	defer observability.ObserveSince("daily_series", time.Now())

	r, err := stats.Window(s.now(), days)
	if err != nil {
		return nil, err
	}

	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		activities, err := ctx.Activities.ListInRange(ctx.Context(), subjectID, r.Start, r.End)
		if err != nil {
			return err
		}
		series = stats.DailySeries(activities)
		return ctx.Commit()
	})
	return
}
