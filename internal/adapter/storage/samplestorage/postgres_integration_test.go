//go:build integration

package samplestorage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/samplestorage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/sessionstorage"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/leporo/sqlf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func migrationPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "../../../../migrations/0001_init.up.sql")
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("wearable"),
		postgrescontainer.WithUsername("wearable"),
		postgrescontainer.WithPassword("wearable"),
		postgrescontainer.WithInitScripts(migrationPath(t)),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlf.SetDialect(sqlf.PostgreSQL)
	return &storage.DB{DB: db}
}

func seedSession(t *testing.T, db *storage.DB) *session.Session {
	t.Helper()
	ctx := context.Background()
	userID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, password_hash, role, created_at, updated_at) VALUES ($1, $2, 'x', 'ATHLETE', $3, $3)`,
		userID, userID+"@example.com", now,
	)
	require.NoError(t, err)

	ses, err := session.New(userID, activity.Running, "", now)
	require.NoError(t, err)
	require.NoError(t, sessionstorage.NewPostgresStorage(db).Add(ctx, ses))
	return ses
}

func readings(n int, start time.Time) []sensor.Reading {
	out := make([]sensor.Reading, n)
	for i := range out {
		ts := start.Add(time.Duration(i) * time.Second)
		hr := float64(100 + i%50)
		steps := 1
		out[i] = sensor.Reading{
			Timestamp:    &ts,
			Measurements: sensor.Measurements{HeartRate: &hr, Steps: &steps},
		}
	}
	return out
}

func TestSampleRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	ses := seedSession(t, db)
	start := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)

	t.Run("batch larger than one chunk", func(t *testing.T) {
		samples, err := sensor.NewBatch(ses.SessionID, readings(samplestorage.BatchChunkRows+500, start), start)
		require.NoError(t, err)

		tx, err := db.Begin(ctx)
		require.NoError(t, err)
		n, err := samplestorage.NewPostgresStorage(tx).AddBatch(ctx, samples)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.Equal(t, samplestorage.BatchChunkRows+500, n)
	})

	t.Run("list is paginated in timestamp order", func(t *testing.T) {
		page, err := samplestorage.NewPostgresStorage(db).List(ctx, ses.SessionID, nil, nil, domain.Page{Limit: 10, Offset: 5})
		require.NoError(t, err)
		assert.Equal(t, samplestorage.BatchChunkRows+500, page.Total)
		require.Len(t, page.Items, 10)
		assert.True(t, page.Items[0].Timestamp.Equal(start.Add(5*time.Second)))
		for i := 1; i < len(page.Items); i++ {
			assert.True(t, page.Items[i-1].Timestamp.Before(page.Items[i].Timestamp))
		}
	})

	t.Run("range filter is inclusive", func(t *testing.T) {
		from, to := start.Add(10*time.Second), start.Add(19*time.Second)
		page, err := samplestorage.NewPostgresStorage(db).List(ctx, ses.SessionID, &from, &to, domain.Page{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, 10, page.Total)
	})

	t.Run("latest", func(t *testing.T) {
		latest, err := samplestorage.NewPostgresStorage(db).Latest(ctx, ses.SessionID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, latest.Timestamp.Equal(start.Add(time.Duration(samplestorage.BatchChunkRows+499)*time.Second)))
		require.NotNil(t, latest.HeartRate)
		assert.Nil(t, latest.Temperature)
	})

	t.Run("empty session has no latest sample", func(t *testing.T) {
		other := seedSession(t, db)
		latest, err := samplestorage.NewPostgresStorage(db).Latest(ctx, other.SessionID)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})
}

func TestBatchIsAllOrNothing(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	ses := seedSession(t, db)
	start := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)

	samples, err := sensor.NewBatch(ses.SessionID, readings(samplestorage.BatchChunkRows+1, start), start)
	require.NoError(t, err)
	samples[len(samples)-1].SessionID = uuid.NewString()

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	n, err := samplestorage.NewPostgresStorage(tx).AddBatch(ctx, samples)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.Zero(t, n)
	require.NoError(t, tx.Rollback())

	page, err := samplestorage.NewPostgresStorage(db).List(ctx, ses.SessionID, nil, nil, domain.Page{Limit: 1})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
