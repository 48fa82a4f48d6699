package goalstorage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/pgutil"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/goal"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"github.com/samber/lo"
)

type PostgresStorage struct {
	base *pgutil.BasePostgresStorage
}

func NewPostgresStorage(db storage.DBContext) *PostgresStorage {
	return &PostgresStorage{
		base: pgutil.NewBasePostgresStorage(db),
	}
}

func (s *PostgresStorage) Add(ctx context.Context, g *goal.Goal) error {
	q := sqlf.InsertInto("goals").
		Set("goal_id", g.GoalID).
		Set("user_id", g.UserID).
		Set("title", g.Title).
		Set("description", g.Description).
		Set("target_value", g.TargetValue).
		Set("current_value", g.CurrentValue).
		Set("unit", g.Unit).
		Set("activity_type", string(g.ActivityType)).
		Set("status", string(g.Status)).
		Set("target_date", g.TargetDate).
		Set("created_at", g.CreatedAt).
		Set("updated_at", g.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "goals_pkey") {
			return goal.ErrGoalExists
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(g.GoalID, g)
	return nil
}

type goalRow struct {
	GoalID       string
	UserID       string
	Title        string
	Description  string
	TargetValue  float64
	CurrentValue float64
	Unit         string
	ActivityType string
	Status       string
	TargetDate   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt),
) (map[string]*goal.Goal, []string, error) {
	var tmp goalRow

	q := sqlf.From("goals g").
		Select("g.goal_id").To(&tmp.GoalID).
		Select("g.user_id").To(&tmp.UserID).
		Select("g.title").To(&tmp.Title).
		Select("g.description").To(&tmp.Description).
		Select("g.target_value").To(&tmp.TargetValue).
		Select("g.current_value").To(&tmp.CurrentValue).
		Select("g.unit").To(&tmp.Unit).
		Select("g.activity_type").To(&tmp.ActivityType).
		Select("g.status").To(&tmp.Status).
		Select("g.target_date").To(&tmp.TargetDate).
		Select("g.created_at").To(&tmp.CreatedAt).
		Select("g.updated_at").To(&tmp.UpdatedAt)

	modify(q)

	result := make(map[string]*goal.Goal)
	var order []string

	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		result[tmp.GoalID] = &goal.Goal{
			GoalID:       tmp.GoalID,
			UserID:       tmp.UserID,
			Title:        tmp.Title,
			Description:  tmp.Description,
			TargetValue:  tmp.TargetValue,
			CurrentValue: tmp.CurrentValue,
			Unit:         tmp.Unit,
			ActivityType: activity.Type(tmp.ActivityType),
			Status:       goal.Status(tmp.Status),
			TargetDate:   tmp.TargetDate.UTC(),
			CreatedAt:    tmp.CreatedAt.UTC(),
			UpdatedAt:    tmp.UpdatedAt.UTC(),
		}
		order = append(order, tmp.GoalID)
	})

	if err == nil || errors.Is(err, sql.ErrNoRows) {
		for id, g := range result {
			s.base.MarkSeen(id, g)
		}
		return result, order, nil
	}

	return nil, nil, storage.InternalError(err)
}

func (s *PostgresStorage) GetByID(ctx context.Context, goalID string) (*goal.Goal, error) {
	result, _, err := s.get(ctx, func(stmt *sqlf.Stmt) {
		stmt.Where("g.goal_id = ?", goalID)
	})
	return pgutil.PeekOrErr(result, err, goal.ErrGoalNotFound)
}

func (s *PostgresStorage) List(ctx context.Context, f goal.Filter) ([]*goal.Goal, error) {
	result, order, err := s.get(ctx, func(stmt *sqlf.Stmt) {
		stmt.Where("g.user_id = ?", f.UserID)
		if f.Status != "" {
			stmt.Where("g.status = ?", string(f.Status))
		}
		if f.ActivityType != "" {
			stmt.Where("g.activity_type = ?", string(f.ActivityType))
		}
		stmt.OrderBy("g.target_date ASC")
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(order, func(id string, _ int) *goal.Goal {
		return result[id]
	}), nil
}

// Persist writes the fields that changed since the goal was stored.
func (s *PostgresStorage) Persist(ctx context.Context, g *goal.Goal) error {
	dbState, err := s.GetByID(ctx, g.GoalID)
	if err != nil {
		return err
	}
	s.base.MarkSeen(g.GoalID, g)

	log, err := diff.Diff(dbState, g)
	if err != nil {
		return storage.InternalError(err)
	}

	q := sqlf.Update("goals").
		Set("updated_at", g.UpdatedAt).
		Where("goal_id = ?", g.GoalID)
	if !g.TargetDate.Equal(dbState.TargetDate) {
		q.Set("target_date", g.TargetDate)
	}
	q = pgutil.MakeUpdateQuery(q, log)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, goal.ErrGoalNotFound)
}

func (s *PostgresStorage) Delete(ctx context.Context, goalID string) error {
	res, err := sqlf.DeleteFrom("goals").
		Where("goal_id = ?", goalID).
		ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, goal.ErrGoalNotFound)
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}
