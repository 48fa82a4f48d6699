package samplestorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/pgutil"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/leporo/sqlf"
)

var (
	ErrPartialBatch = errors.New("batch insert affected an unexpected number of rows")
)

// Postgres accepts at most 65535 bind parameters per statement.
const batchChunkRows = 1000

type PostgresStorage struct {
	base *pgutil.BasePostgresStorage
}

func NewPostgresStorage(db storage.DBContext) *PostgresStorage {
	return &PostgresStorage{
		base: pgutil.NewBasePostgresStorage(db),
	}
}

func setSample(q *sqlf.Stmt, s *sensor.Sample) {
	q.NewRow().Set("sample_id", s.SampleID).
		Set("session_id", s.SessionID).
		Set("ts", s.Timestamp).
		Set("heart_rate", s.HeartRate).
		Set("temperature", s.Temperature).
		Set("spo2", s.SpO2).
		Set("accel_x", s.AccelX).
		Set("accel_y", s.AccelY).
		Set("accel_z", s.AccelZ).
		Set("gyro_x", s.GyroX).
		Set("gyro_y", s.GyroY).
		Set("gyro_z", s.GyroZ).
		Set("latitude", s.Latitude).
		Set("longitude", s.Longitude).
		Set("altitude", s.Altitude).
		Set("ecg_value", s.ECGValue).
		Set("steps", s.Steps).
		Set("calories", s.Calories).
		Set("battery", s.Battery)
}

func (s *PostgresStorage) Add(ctx context.Context, sample *sensor.Sample) error {
	q := sqlf.InsertInto("sensor_samples")
	setSample(q, sample)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		return insertError(err)
	}
	return nil
}

// AddBatch inserts all samples with multi-row statements. It must run inside
// a transaction so that a failing chunk rolls back the ones before it.
func (s *PostgresStorage) AddBatch(ctx context.Context, samples []*sensor.Sample) (int, error) {
	inserted := 0
	for start := 0; start < len(samples); start += batchChunkRows {
		chunk := samples[start:min(start+batchChunkRows, len(samples))]

		q := sqlf.InsertInto("sensor_samples")
		for _, sample := range chunk {
			setSample(q, sample)
		}

		res, err := q.ExecAndClose(ctx, s.base.DB)
		if err != nil {
			return 0, insertError(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, storage.InternalError(err)
		}
		if int(affected) != len(chunk) {
			return 0, fmt.Errorf("%w: %d of %d", ErrPartialBatch, affected, len(chunk))
		}
		inserted += len(chunk)
	}
	return inserted, nil
}

func insertError(err error) error {
	if pgutil.ViolatesForeignKey(err) {
		return session.ErrSessionNotFound
	}
	return storage.InternalError(err)
}

// SelectSample adds every sample column of the table aliased as alias to q.
func SelectSample(q *sqlf.Stmt, alias string, tmp *sensor.Sample) *sqlf.Stmt {
	col := func(name string) string { return alias + "." + name }
	return q.
		Select(col("sample_id")).To(&tmp.SampleID).
		Select(col("session_id")).To(&tmp.SessionID).
		Select(col("ts")).To(&tmp.Timestamp).
		Select(col("heart_rate")).To(&tmp.HeartRate).
		Select(col("temperature")).To(&tmp.Temperature).
		Select(col("spo2")).To(&tmp.SpO2).
		Select(col("accel_x")).To(&tmp.AccelX).
		Select(col("accel_y")).To(&tmp.AccelY).
		Select(col("accel_z")).To(&tmp.AccelZ).
		Select(col("gyro_x")).To(&tmp.GyroX).
		Select(col("gyro_y")).To(&tmp.GyroY).
		Select(col("gyro_z")).To(&tmp.GyroZ).
		Select(col("latitude")).To(&tmp.Latitude).
		Select(col("longitude")).To(&tmp.Longitude).
		Select(col("altitude")).To(&tmp.Altitude).
		Select(col("ecg_value")).To(&tmp.ECGValue).
		Select(col("steps")).To(&tmp.Steps).
		Select(col("calories")).To(&tmp.Calories).
		Select(col("battery")).To(&tmp.Battery)
}

// Scan selects samples, letting modify add filters and ordering.
func Scan(ctx context.Context, db storage.DBContext, modify func(q *sqlf.Stmt)) ([]*sensor.Sample, error) {
	var tmp sensor.Sample
	q := SelectSample(sqlf.From("sensor_samples s"), "s", &tmp)
	modify(q)

	var result []*sensor.Sample
	err := q.QueryAndClose(ctx, db, func(rows *sql.Rows) {
		sample := tmp
		sample.Timestamp = sample.Timestamp.UTC()
		result = append(result, &sample)
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storage.InternalError(err)
	}
	return result, nil
}

func (s *PostgresStorage) List(
	ctx context.Context,
	sessionID string,
	from, to *time.Time,
	page domain.Page,
) (domain.Paginated[*sensor.Sample], error) {
	result := domain.Paginated[*sensor.Sample]{Limit: page.Limit, Offset: page.Offset}

	count := sqlf.From("sensor_samples s").
		Select("COUNT(*)").To(&result.Total).
		Where("s.session_id = ?", sessionID)
	pgutil.TimeRange(count, "s.ts", from, to)
	if err := count.QueryRowAndClose(ctx, s.base.DB); err != nil {
		return result, storage.InternalError(err)
	}

	items, err := Scan(ctx, s.base.DB, func(q *sqlf.Stmt) {
		q.Where("s.session_id = ?", sessionID)
		pgutil.TimeRange(q, "s.ts", from, to)
		q.OrderBy("s.ts ASC", "s.sample_id ASC").
			Limit(page.Limit).
			Offset(page.Offset)
	})
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

// ListBySession returns every sample of the session in timestamp order.
func (s *PostgresStorage) ListBySession(ctx context.Context, sessionID string) ([]*sensor.Sample, error) {
	return Scan(ctx, s.base.DB, func(q *sqlf.Stmt) {
		q.Where("s.session_id = ?", sessionID).
			OrderBy("s.ts ASC", "s.sample_id ASC")
	})
}

// Latest returns the most recent sample, or nil when the session has none.
func (s *PostgresStorage) Latest(ctx context.Context, sessionID string) (*sensor.Sample, error) {
	items, err := Scan(ctx, s.base.DB, func(q *sqlf.Stmt) {
		q.Where("s.session_id = ?", sessionID).
			OrderBy("s.ts DESC", "s.sample_id DESC").
			Limit(1)
	})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}
