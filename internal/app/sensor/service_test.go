package sensorservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/burenotti/wearable_backend/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = access.Caller{ID: "athlete", Role: access.RoleAthlete}
	coach = access.Caller{ID: "coach", Role: access.RoleCoach}
	now   = time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
)

func ptr[T any](v T) *T {
	return &v
}

type fixture struct {
	svc     *Service
	uow     *unitofwork.UnitOfWork[*AtomicContext]
	store   *testsupport.Store
	bus     *testsupport.Bus
	db      *testsupport.FakeDB
	session *session.Session
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := testsupport.NewStore()
	bus := &testsupport.Bus{}
	db := &testsupport.FakeDB{}
	uow := unitofwork.New(db, func(ctx context.Context, dbCtx storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{
			ctx:      ctx,
			db:       dbCtx,
			Sessions: testsupport.SessionStore{Store: store},
			Samples:  testsupport.SampleStore{Store: store},
		}, nil
	}, bus, testsupport.Logger())

	ses, err := session.New(owner.ID, activity.Running, "", now)
	require.NoError(t, err)
	ses.PopEvents()
	require.NoError(t, testsupport.SessionStore{Store: store}.Add(context.Background(), ses))

	return fixture{
		svc:     New(testsupport.Logger(), func() time.Time { return now }),
		uow:     uow,
		store:   store,
		bus:     bus,
		db:      db,
		session: ses,
	}
}

func TestInsertStampsMissingTimestamp(t *testing.T) {
	f := setup(t)

	sample, err := f.svc.Insert(context.Background(), f.uow, owner, f.session.SessionID, sensor.Reading{
		Measurements: sensor.Measurements{HeartRate: ptr(72.0)},
	})
	require.NoError(t, err)
	assert.Equal(t, now, sample.Timestamp)
	assert.Equal(t, []string{sensor.EventSamplesIngested}, f.bus.Types())
}

func TestInsertRequiresOwner(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Insert(context.Background(), f.uow, coach, f.session.SessionID, sensor.Reading{})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Insert(context.Background(), f.uow, owner, "missing", sensor.Reading{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBatchRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	readings := make([]sensor.Reading, 0, 50)
	for i := 49; i >= 0; i-- {
		ts := now.Add(time.Duration(i) * time.Second)
		readings = append(readings, sensor.Reading{
			Timestamp:    &ts,
			Measurements: sensor.Measurements{HeartRate: ptr(60 + float64(i)*0.1), Steps: ptr(i)},
		})
	}

	n, err := f.svc.InsertBatch(ctx, f.uow, owner, f.session.SessionID, readings, SourceBatch)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	page, err := f.svc.List(ctx, f.uow, coach, f.session.SessionID, nil, nil, domain.Page{Limit: 50})
	require.NoError(t, err)
	require.Len(t, page.Items, 50)
	assert.Equal(t, 50, page.Total)
	for i, sample := range page.Items {
		assert.Equal(t, now.Add(time.Duration(i)*time.Second), sample.Timestamp)
		assert.Equal(t, 60+float64(i)*0.1, *sample.HeartRate)
		assert.Equal(t, i, *sample.Steps)
	}
}

func TestBatchFailureReportsNoCount(t *testing.T) {
	f := setup(t)
	f.store.BatchError = errors.New("connection reset")

	n, err := f.svc.InsertBatch(context.Background(), f.uow, owner, f.session.SessionID, []sensor.Reading{{}}, SourceBatch)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.db.Rollbacks)
	assert.Empty(t, f.bus.Events)
}

func TestBatchRejectsEmpty(t *testing.T) {
	f := setup(t)

	_, err := f.svc.InsertBatch(context.Background(), f.uow, owner, f.session.SessionID, nil, SourceBatch)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestIngestDeviceSkipsCallerCheck(t *testing.T) {
	f := setup(t)

	n, err := f.svc.IngestDevice(context.Background(), f.uow, f.session.SessionID, []sensor.Reading{{}, {}}, SourceMQTT)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestListRejectsInvertedRange(t *testing.T) {
	f := setup(t)
	from := now
	to := now.Add(-time.Hour)

	_, err := f.svc.List(context.Background(), f.uow, owner, f.session.SessionID, &from, &to, domain.Page{Limit: 10})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestLatestAndStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	latest, err := f.svc.Latest(ctx, f.uow, owner, f.session.SessionID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	t1, t2 := now, now.Add(time.Minute)
	_, err = f.svc.InsertBatch(ctx, f.uow, owner, f.session.SessionID, []sensor.Reading{
		{Timestamp: &t2, Measurements: sensor.Measurements{HeartRate: ptr(90.0), Steps: ptr(20), Battery: ptr(80.0)}},
		{Timestamp: &t1, Measurements: sensor.Measurements{HeartRate: ptr(70.0), Calories: ptr(3.5)}},
	}, SourceBatch)
	require.NoError(t, err)

	latest, err = f.svc.Latest(ctx, f.uow, owner, f.session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, t2, latest.Timestamp)

	st, err := f.svc.Stats(ctx, f.uow, coach, f.session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, *st.HeartRate.Avg)
	assert.Nil(t, st.Temperature.Avg)
	assert.Equal(t, 80.0, *st.Battery.Max)
	assert.Equal(t, 20, st.TotalSteps)
	assert.Equal(t, 3.5, st.TotalCalories)

	stranger := access.Caller{ID: "stranger", Role: access.RoleAthlete}
	_, err = f.svc.Stats(ctx, f.uow, stranger, f.session.SessionID)
	require.ErrorIs(t, err, domain.ErrForbidden)
}
