package sessionstorage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/pgutil"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/samplestorage"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/leporo/sqlf"
)

type PostgresStorage struct {
	base *pgutil.BasePostgresStorage
}

func NewPostgresStorage(db storage.DBContext) *PostgresStorage {
	return &PostgresStorage{
		base: pgutil.NewBasePostgresStorage(db),
	}
}

func (s *PostgresStorage) Add(ctx context.Context, ses *session.Session) error {
	q := sqlf.InsertInto("sessions").
		Set("session_id", ses.SessionID).
		Set("user_id", ses.UserID).
		Set("start_time", ses.StartTime).
		Set("end_time", ses.EndTime).
		Set("duration", ses.Duration).
		Set("activity_type", string(ses.ActivityType)).
		Set("notes", ses.Notes).
		Set("created_at", ses.CreatedAt).
		Set("updated_at", ses.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "sessions_pkey") {
			return session.ErrSessionExists
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(ses.SessionID, ses)
	return nil
}

type sessionRow struct {
	SessionID    string
	UserID       string
	StartTime    time.Time
	EndTime      *time.Time
	Duration     *int
	ActivityType string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Samples      int
	Activities   int
}

func (r *sessionRow) toDomain() *session.Session {
	ses := &session.Session{
		SessionID:    r.SessionID,
		UserID:       r.UserID,
		StartTime:    r.StartTime.UTC(),
		Duration:     r.Duration,
		ActivityType: activity.Type(r.ActivityType),
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		Counts:       session.Counts{Samples: r.Samples, Activities: r.Activities},
	}
	if r.EndTime != nil {
		end := r.EndTime.UTC()
		ses.EndTime = &end
	}
	return ses
}

func (s *PostgresStorage) get(
	ctx context.Context,
	withCounts bool,
	modify func(stmt *sqlf.Stmt),
) ([]*session.Session, error) {
	var tmp sessionRow

	q := sqlf.From("sessions s").
		Select("s.session_id").To(&tmp.SessionID).
		Select("s.user_id").To(&tmp.UserID).
		Select("s.start_time").To(&tmp.StartTime).
		Select("s.end_time").To(&tmp.EndTime).
		Select("s.duration").To(&tmp.Duration).
		Select("s.activity_type").To(&tmp.ActivityType).
		Select("s.notes").To(&tmp.Notes).
		Select("s.created_at").To(&tmp.CreatedAt).
		Select("s.updated_at").To(&tmp.UpdatedAt)

	if withCounts {
		q.Select("(SELECT COUNT(*) FROM sensor_samples x WHERE x.session_id = s.session_id)").To(&tmp.Samples).
			Select("(SELECT COUNT(*) FROM activities x WHERE x.session_id = s.session_id)").To(&tmp.Activities)
	}

	modify(q)

	var result []*session.Session
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		ses := tmp.toDomain()
		s.base.MarkSeen(ses.SessionID, ses)
		result = append(result, ses)
	})

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storage.InternalError(err)
	}
	return result, nil
}

func (s *PostgresStorage) GetByID(ctx context.Context, sessionID string) (*session.Session, error) {
	result, err := s.get(ctx, true, func(stmt *sqlf.Stmt) {
		stmt.Where("s.session_id = ?", sessionID)
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, session.ErrSessionNotFound
	}
	return result[0], nil
}

func applyFilter(stmt *sqlf.Stmt, f session.Filter) {
	stmt.Where("s.user_id = ?", f.UserID)
	if f.ActivityType != "" {
		stmt.Where("s.activity_type = ?", string(f.ActivityType))
	}
	pgutil.TimeRange(stmt, "s.start_time", f.From, f.To)
}

func (s *PostgresStorage) List(
	ctx context.Context,
	f session.Filter,
	page domain.Page,
) (domain.Paginated[*session.Session], error) {
	result := domain.Paginated[*session.Session]{Limit: page.Limit, Offset: page.Offset}

	count := sqlf.From("sessions s").Select("COUNT(*)").To(&result.Total)
	applyFilter(count, f)
	if err := count.QueryRowAndClose(ctx, s.base.DB); err != nil {
		return result, storage.InternalError(err)
	}

	items, err := s.get(ctx, true, func(stmt *sqlf.Stmt) {
		applyFilter(stmt, f)
		stmt.OrderBy("s.start_time DESC").
			Limit(page.Limit).
			Offset(page.Offset)
	})
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

// ListWithSamples returns the user's sessions started within [from, to],
// each carrying all of its samples in timestamp order.
func (s *PostgresStorage) ListWithSamples(ctx context.Context, userID string, from, to time.Time) ([]*session.Session, error) {
	f := session.Filter{UserID: userID, From: &from, To: &to}

	sessions, err := s.get(ctx, false, func(stmt *sqlf.Stmt) {
		applyFilter(stmt, f)
		stmt.OrderBy("s.start_time ASC")
	})
	if err != nil || len(sessions) == 0 {
		return sessions, err
	}

	samples, err := samplestorage.Scan(ctx, s.base.DB, func(q *sqlf.Stmt) {
		q.Join("sessions ss", "ss.session_id = s.session_id").
			Where("ss.user_id = ?", userID)
		pgutil.TimeRange(q, "ss.start_time", &from, &to)
		q.OrderBy("s.ts ASC", "s.sample_id ASC")
	})
	if err != nil {
		return nil, err
	}

	bySession := make(map[string][]*sensor.Sample, len(sessions))
	for _, sample := range samples {
		bySession[sample.SessionID] = append(bySession[sample.SessionID], sample)
	}
	for _, ses := range sessions {
		ses.Samples = bySession[ses.SessionID]
	}
	return sessions, nil
}

func (s *PostgresStorage) Persist(ctx context.Context, ses *session.Session) error {
	q := sqlf.Update("sessions").
		Set("end_time", ses.EndTime).
		Set("duration", ses.Duration).
		Set("activity_type", string(ses.ActivityType)).
		Set("notes", ses.Notes).
		Set("updated_at", ses.UpdatedAt).
		Where("session_id = ?", ses.SessionID)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	if err := pgutil.AssertUpdated(res, err, session.ErrSessionNotFound); err != nil {
		return err
	}
	s.base.MarkSeen(ses.SessionID, ses)
	return nil
}

// Delete removes the session. Its samples go with it; activities are detached.
func (s *PostgresStorage) Delete(ctx context.Context, sessionID string) error {
	res, err := sqlf.DeleteFrom("sessions").
		Where("session_id = ?", sessionID).
		ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, session.ErrSessionNotFound)
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}
