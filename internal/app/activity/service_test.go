package activityservice

import (
	"context"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/burenotti/wearable_backend/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = access.Caller{ID: "athlete", Role: access.RoleAthlete}
	other = access.Caller{ID: "stranger", Role: access.RoleAthlete}
	admin = access.Caller{ID: "admin", Role: access.RoleAdmin}
	day   = time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
)

func setup() (*Service, *unitofwork.UnitOfWork[*AtomicContext], *testsupport.Store, *testsupport.Bus) {
	store := testsupport.NewStore()
	bus := &testsupport.Bus{}
	uow := unitofwork.New(&testsupport.FakeDB{}, func(ctx context.Context, db storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{
			ctx:        ctx,
			db:         db,
			Activities: testsupport.ActivityStore{Store: store},
			Sessions:   testsupport.SessionStore{Store: store},
		}, nil
	}, bus, testsupport.Logger())
	return New(testsupport.Logger()), uow, store, bus
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateValidatesType(t *testing.T) {
	svc, uow, _, bus := setup()

	_, err := svc.Create(context.Background(), uow, owner, activity.Details{Type: "DANCING", StartTime: day})
	require.ErrorIs(t, err, domain.ErrValidation)

	a, err := svc.Create(context.Background(), uow, owner, activity.Details{
		Type:      activity.Running,
		Name:      "tempo",
		StartTime: day,
		Distance:  ptr(5.0),
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, a.UserID)
	assert.Equal(t, []string{activity.EventCreated}, bus.Types())
}

func TestCreateRequiresOwnSession(t *testing.T) {
	svc, uow, store, _ := setup()
	ctx := context.Background()

	ses, err := session.New(other.ID, activity.Running, "", day)
	require.NoError(t, err)
	ses.PopEvents()
	require.NoError(t, testsupport.SessionStore{Store: store}.Add(ctx, ses))

	_, err = svc.Create(ctx, uow, owner, activity.Details{Type: activity.Running, StartTime: day, SessionID: &ses.SessionID})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Create(ctx, uow, owner, activity.Details{Type: activity.Running, StartTime: day, SessionID: ptr("missing")})
	require.ErrorIs(t, err, domain.ErrNotFound)

	a, err := svc.Create(ctx, uow, other, activity.Details{Type: activity.Running, StartTime: day, SessionID: &ses.SessionID})
	require.NoError(t, err)
	assert.Equal(t, ses.SessionID, *a.SessionID)
}

func TestUpdateAndDeleteAreOwnerOnly(t *testing.T) {
	svc, uow, _, _ := setup()
	ctx := context.Background()

	a, err := svc.Create(ctx, uow, owner, activity.Details{Type: activity.Gym, StartTime: day})
	require.NoError(t, err)

	got, err := svc.Get(ctx, uow, admin, a.ActivityID)
	require.NoError(t, err)
	assert.Equal(t, a.ActivityID, got.ActivityID)

	_, err = svc.Get(ctx, uow, other, a.ActivityID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(ctx, uow, admin, a.ActivityID, activity.Patch{Calories: ptr(300.0)})
	require.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := svc.Update(ctx, uow, owner, a.ActivityID, activity.Patch{Calories: ptr(300.0)})
	require.NoError(t, err)
	assert.Equal(t, 300.0, *updated.Calories)

	require.ErrorIs(t, svc.Delete(ctx, uow, other, a.ActivityID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, uow, owner, a.ActivityID))

	_, err = svc.Get(ctx, uow, owner, a.ActivityID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	svc, uow, _, _ := setup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, uow, owner, activity.Details{Type: activity.Walking, StartTime: day.AddDate(0, 0, i)})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, uow, other, activity.Details{Type: activity.Walking, StartTime: day})
	require.NoError(t, err)

	page, err := svc.List(ctx, uow, activity.Filter{UserID: owner.ID}, domain.Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Items, 2)
	assert.Equal(t, day.AddDate(0, 0, 2), page.Items[0].StartTime)
}
