package goalservice

import (
	"context"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/goal"
	"github.com/burenotti/wearable_backend/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = access.Caller{ID: "athlete", Role: access.RoleAthlete}
	coach = access.Caller{ID: "coach", Role: access.RoleCoach}
	now   = time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
)

func setup() (*Service, *unitofwork.UnitOfWork[*AtomicContext], *testsupport.Bus) {
	store := testsupport.NewStore()
	bus := &testsupport.Bus{}
	uow := unitofwork.New(&testsupport.FakeDB{}, func(ctx context.Context, db storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{ctx: ctx, db: db, Goals: testsupport.GoalStore{Store: store}}, nil
	}, bus, testsupport.Logger())
	return New(testsupport.Logger(), func() time.Time { return now }), uow, bus
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateRejectsNonPositiveTarget(t *testing.T) {
	svc, uow, _ := setup()

	_, err := svc.Create(context.Background(), uow, owner, goal.Details{Title: "run", TargetValue: 0})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestProgressUpdates(t *testing.T) {
	svc, uow, bus := setup()
	ctx := context.Background()

	g, err := svc.Create(ctx, uow, owner, goal.Details{Title: "run 100km", TargetValue: 100, Unit: "km", TargetDate: now.AddDate(0, 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, goal.Pending, g.Status)

	_, err = svc.Update(ctx, uow, coach, g.GoalID, goal.Patch{CurrentValue: ptr(10.0)})
	require.ErrorIs(t, err, domain.ErrForbidden)

	g, err = svc.Update(ctx, uow, owner, g.GoalID, goal.Patch{CurrentValue: ptr(50.0)})
	require.NoError(t, err)
	assert.Equal(t, goal.InProgress, g.Status)

	g, err = svc.Update(ctx, uow, owner, g.GoalID, goal.Patch{CurrentValue: ptr(120.0)})
	require.NoError(t, err)
	assert.Equal(t, goal.Completed, g.Status)

	g, err = svc.Update(ctx, uow, owner, g.GoalID, goal.Patch{CurrentValue: ptr(130.0)})
	require.NoError(t, err)
	assert.Equal(t, goal.Completed, g.Status)

	assert.Equal(t, []string{goal.EventCreated, goal.EventCompleted}, bus.Types())
}

func TestProgressUsesStoredTarget(t *testing.T) {
	svc, uow, _ := setup()
	ctx := context.Background()

	g, err := svc.Create(ctx, uow, owner, goal.Details{Title: "steps", TargetValue: 100})
	require.NoError(t, err)

	g, err = svc.Update(ctx, uow, owner, g.GoalID, goal.Patch{CurrentValue: ptr(100.0), TargetValue: ptr(200.0)})
	require.NoError(t, err)
	assert.Equal(t, goal.Completed, g.Status)
	assert.Equal(t, 200.0, g.TargetValue)
}

func TestGetAndDelete(t *testing.T) {
	svc, uow, _ := setup()
	ctx := context.Background()

	g, err := svc.Create(ctx, uow, owner, goal.Details{Title: "swim", TargetValue: 5})
	require.NoError(t, err)

	got, err := svc.Get(ctx, uow, coach, g.GoalID)
	require.NoError(t, err)
	assert.Equal(t, "swim", got.Title)

	require.ErrorIs(t, svc.Delete(ctx, uow, coach, g.GoalID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, uow, owner, g.GoalID))

	goals, err := svc.List(ctx, uow, goal.Filter{UserID: owner.ID})
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestOnCompletedIgnoresOtherEvents(t *testing.T) {
	svc, _, _ := setup()

	require.NoError(t, svc.OnCompleted(&goal.CreatedEvent{}))
	require.NoError(t, svc.OnCompleted(&goal.CompletedEvent{GoalID: "g", UserID: "u", Value: 1}))
}
