package activitystorage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/pgutil"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
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

func (s *PostgresStorage) Add(ctx context.Context, a *activity.Activity) error {
	q := sqlf.InsertInto("activities").
		Set("activity_id", a.ActivityID).
		Set("user_id", a.UserID).
		Set("created_at", a.CreatedAt)
	setMutable(q, a)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		switch {
		case pgutil.ViolatesConstraint(err, "activities_pkey"):
			return activity.ErrActivityExists
		case pgutil.ViolatesForeignKey(err):
			return session.ErrSessionNotFound
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(a.ActivityID, a)
	return nil
}

func setMutable(q *sqlf.Stmt, a *activity.Activity) {
	q.Set("session_id", a.SessionID).
		Set("activity_type", string(a.Type)).
		Set("name", a.Name).
		Set("description", a.Description).
		Set("start_time", a.StartTime).
		Set("end_time", a.EndTime).
		Set("duration", a.Duration).
		Set("distance", a.Distance).
		Set("average_speed", a.AverageSpeed).
		Set("max_speed", a.MaxSpeed).
		Set("average_heart_rate", a.AverageHeartRate).
		Set("max_heart_rate", a.MaxHeartRate).
		Set("calories", a.Calories).
		Set("updated_at", a.UpdatedAt)
}

type activityRow struct {
	ActivityID       string
	UserID           string
	SessionID        *string
	Type             string
	Name             string
	Description      string
	StartTime        time.Time
	EndTime          *time.Time
	Duration         *int
	Distance         *float64
	AverageSpeed     *float64
	MaxSpeed         *float64
	AverageHeartRate *int
	MaxHeartRate     *int
	Calories         *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r *activityRow) toDomain() *activity.Activity {
	a := &activity.Activity{
		ActivityID:       r.ActivityID,
		UserID:           r.UserID,
		SessionID:        r.SessionID,
		Type:             activity.Type(r.Type),
		Name:             r.Name,
		Description:      r.Description,
		StartTime:        r.StartTime.UTC(),
		Duration:         r.Duration,
		Distance:         r.Distance,
		AverageSpeed:     r.AverageSpeed,
		MaxSpeed:         r.MaxSpeed,
		AverageHeartRate: r.AverageHeartRate,
		MaxHeartRate:     r.MaxHeartRate,
		Calories:         r.Calories,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if r.EndTime != nil {
		end := r.EndTime.UTC()
		a.EndTime = &end
	}
	return a
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt),
) ([]*activity.Activity, error) {
	var tmp activityRow

	q := sqlf.From("activities a").
		Select("a.activity_id").To(&tmp.ActivityID).
		Select("a.user_id").To(&tmp.UserID).
		Select("a.session_id").To(&tmp.SessionID).
		Select("a.activity_type").To(&tmp.Type).
		Select("a.name").To(&tmp.Name).
		Select("a.description").To(&tmp.Description).
		Select("a.start_time").To(&tmp.StartTime).
		Select("a.end_time").To(&tmp.EndTime).
		Select("a.duration").To(&tmp.Duration).
		Select("a.distance").To(&tmp.Distance).
		Select("a.average_speed").To(&tmp.AverageSpeed).
		Select("a.max_speed").To(&tmp.MaxSpeed).
		Select("a.average_heart_rate").To(&tmp.AverageHeartRate).
		Select("a.max_heart_rate").To(&tmp.MaxHeartRate).
		Select("a.calories").To(&tmp.Calories).
		Select("a.created_at").To(&tmp.CreatedAt).
		Select("a.updated_at").To(&tmp.UpdatedAt)

	modify(q)

	var result []*activity.Activity
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		a := tmp.toDomain()
		s.base.MarkSeen(a.ActivityID, a)
		result = append(result, a)
	})

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storage.InternalError(err)
	}
	return result, nil
}

func (s *PostgresStorage) GetByID(ctx context.Context, activityID string) (*activity.Activity, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) {
		stmt.Where("a.activity_id = ?", activityID)
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, activity.ErrActivityNotFound
	}
	return result[0], nil
}

func applyFilter(stmt *sqlf.Stmt, f activity.Filter) {
	stmt.Where("a.user_id = ?", f.UserID)
	if f.Type != "" {
		stmt.Where("a.activity_type = ?", string(f.Type))
	}
	pgutil.TimeRange(stmt, "a.start_time", f.From, f.To)
}

func (s *PostgresStorage) List(
	ctx context.Context,
	f activity.Filter,
	page domain.Page,
) (domain.Paginated[*activity.Activity], error) {
	result := domain.Paginated[*activity.Activity]{Limit: page.Limit, Offset: page.Offset}

	count := sqlf.From("activities a").Select("COUNT(*)").To(&result.Total)
	applyFilter(count, f)
	if err := count.QueryRowAndClose(ctx, s.base.DB); err != nil {
		return result, storage.InternalError(err)
	}

	items, err := s.get(ctx, func(stmt *sqlf.Stmt) {
		applyFilter(stmt, f)
		stmt.OrderBy("a.start_time DESC").
			Limit(page.Limit).
			Offset(page.Offset)
	})
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

// ListInRange returns the user's activities started within [from, to], oldest first.
func (s *PostgresStorage) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]*activity.Activity, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) {
		applyFilter(stmt, activity.Filter{UserID: userID, From: &from, To: &to})
		stmt.OrderBy("a.start_time ASC")
	})
}

func (s *PostgresStorage) ListBySession(ctx context.Context, sessionID string) ([]*activity.Activity, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) {
		stmt.Where("a.session_id = ?", sessionID).
			OrderBy("a.start_time ASC")
	})
}

func (s *PostgresStorage) Persist(ctx context.Context, a *activity.Activity) error {
	q := sqlf.Update("activities").Where("activity_id = ?", a.ActivityID)
	setMutable(q, a)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	if err := pgutil.AssertUpdated(res, err, activity.ErrActivityNotFound); err != nil {
		return err
	}
	s.base.MarkSeen(a.ActivityID, a)
	return nil
}

func (s *PostgresStorage) Delete(ctx context.Context, activityID string) error {
	res, err := sqlf.DeleteFrom("activities").
		Where("activity_id = ?", activityID).
		ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, activity.ErrActivityNotFound)
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}
