package sensorservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/burenotti/wearable_backend/internal/domain/stats"
	"github.com/burenotti/wearable_backend/internal/observability"
)

// Ingestion sources, used for metrics and events.
const (
	SourceAPI   = "api"
	SourceBatch = "batch"
	SourceMQTT  = "mqtt"
	SourceFIT   = "fit"
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

func (s *Service) session(ctx *AtomicContext, sessionID string) (*session.Session, error) {
	return ctx.Sessions.GetByID(ctx.Context(), sessionID)
}

func (s *Service) writable(ctx *AtomicContext, caller access.Caller, sessionID string) (*session.Session, error) {
	ses, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !access.CanWrite(caller, ses.UserID) {
		return nil, session.ErrNotOwner
	}
	return ses, nil
}

func (s *Service) readable(ctx *AtomicContext, caller access.Caller, sessionID string) (*session.Session, error) {
	ses, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(caller, ses.UserID) {
		return nil, session.ErrNotOwner
	}
	return ses, nil
}

func (s *Service) Insert(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	sessionID string,
	reading sensor.Reading,
) (sample *sensor.Sample, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		ses, err := s.writable(ctx, caller, sessionID)
		if err != nil {
			return err
		}

		now := s.now()
		sample = sensor.NewSample(sessionID, reading, now)
		if err := ctx.Samples.Add(ctx.Context(), sample); err != nil {
			return err
		}
		ses.RecordSamples(1, SourceAPI, now)
		return ctx.Commit()
	})
	if outErr == nil {
		observability.SamplesIngested.WithLabelValues(SourceAPI).Inc()
	}
	return
}

// InsertBatch appends all readings to a session owned by caller. Either every
// reading is stored or none is.
func (s *Service) InsertBatch(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	sessionID string,
	readings []sensor.Reading,
	source string,
) (int, error) {
	return s.insertBatch(ctx, uow, sessionID, readings, source, func(ses *session.Session) error {
		if !access.CanWrite(caller, ses.UserID) {
			return session.ErrNotOwner
		}
		return nil
	})
}

// IngestDevice stores readings pushed by a device. Devices are authenticated
// by the transport, so no caller check is made.
func (s *Service) IngestDevice(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	sessionID string,
	readings []sensor.Reading,
	source string,
) (int, error) {
	return s.insertBatch(ctx, uow, sessionID, readings, source, func(*session.Session) error {
		return nil
	})
}

func (s *Service) insertBatch(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	sessionID string,
	readings []sensor.Reading,
	source string,
	check func(*session.Session) error,
) (count int, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		ses, err := s.session(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := check(ses); err != nil {
			return err
		}

		now := s.now()
		samples, err := sensor.NewBatch(sessionID, readings, now)
		if err != nil {
			return err
		}
		n, err := ctx.Samples.AddBatch(ctx.Context(), samples)
		if err != nil {
			return err
		}
		ses.RecordSamples(n, source, now)
		count = n
		return ctx.Commit()
	})
	if outErr != nil {
		count = 0
		observability.IngestFailures.WithLabelValues(source).Inc()
		return
	}
	observability.SamplesIngested.WithLabelValues(source).Add(float64(count))
	s.logger.Debug("samples ingested", "session_id", sessionID, "count", count, "source", source)
	return
}

func (s *Service) List(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	sessionID string,
	from, to *time.Time,
	page domain.Page,
) (res domain.Paginated[*sensor.Sample], outErr error) {
	if from != nil && to != nil && to.Before(*from) {
		return res, stats.ErrInvalidRange
	}
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if _, err := s.readable(ctx, caller, sessionID); err != nil {
			return err
		}
		var err error
		if res, err = ctx.Samples.List(ctx.Context(), sessionID, from, to, page); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

// Latest returns the newest sample of the session, nil when there is none.
func (s *Service) Latest(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	sessionID string,
) (sample *sensor.Sample, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if _, err := s.readable(ctx, caller, sessionID); err != nil {
			return err
		}
		var err error
		if sample, err = ctx.Samples.Latest(ctx.Context(), sessionID); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) Stats(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	sessionID string,
) (st stats.SensorStats, outErr error) {
	defer observability.ObserveSince("sensor_stats", time.Now())

	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if _, err := s.readable(ctx, caller, sessionID); err != nil {
			return err
		}
		samples, err := ctx.Samples.ListBySession(ctx.Context(), sessionID)
		if err != nil {
			return err
		}
		st = stats.ComputeSensorStats(samples)
		return ctx.Commit()
	})
	return
}

// All returns every sample of the session in timestamp order, for export.
func (s *Service) All(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	caller access.Caller,
	sessionID string,
) (samples []*sensor.Sample, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if _, err := s.readable(ctx, caller, sessionID); err != nil {
			return err
		}
		var err error
		if samples, err = ctx.Samples.ListBySession(ctx.Context(), sessionID); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}
