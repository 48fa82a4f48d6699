package unitofwork

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct{}

func (testEvent) Type() string           { return "test.happened" }
func (testEvent) PublishedAt() time.Time { return time.Time{} }

type testContext struct {
	ctx    context.Context
	db     storage.DBContext
	events []domain.Event
	closed bool
}

func (c *testContext) Context() context.Context      { return c.ctx }
func (c *testContext) Commit() error                 { return c.db.Commit() }
func (c *testContext) CollectEvents() []domain.Event { return c.events }
func (c *testContext) Close() error {
	c.closed = true
	return nil
}

func setup() (*testsupport.FakeDB, *testsupport.Bus, *UnitOfWork[*testContext], **testContext) {
	db := &testsupport.FakeDB{}
	bus := &testsupport.Bus{}
	var last *testContext
	uow := New(db, func(ctx context.Context, dbCtx storage.DBContext) (*testContext, error) {
		last = &testContext{ctx: ctx, db: dbCtx}
		return last, nil
	}, bus, testsupport.Logger())
	return db, bus, uow, &last
}

func TestAtomicCommitPublishesEvents(t *testing.T) {
	db, bus, uow, last := setup()

	err := uow.Atomic(context.Background(), func(c *testContext) error {
		c.events = append(c.events, testEvent{})
		return c.Commit()
	})

	require.NoError(t, err)
	assert.Equal(t, 1, db.Commits)
	assert.Equal(t, 0, db.Rollbacks)
	assert.Equal(t, []string{"test.happened"}, bus.Types())
	assert.True(t, (*last).closed)
}

func TestAtomicErrorRollsBack(t *testing.T) {
	db, bus, uow, last := setup()
	boom := errors.New("boom")

	err := uow.Atomic(context.Background(), func(c *testContext) error {
		c.events = append(c.events, testEvent{})
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, ErrRollback)
	assert.Equal(t, 0, db.Commits)
	assert.Equal(t, 1, db.Rollbacks)
	assert.Empty(t, bus.Events)
	assert.True(t, (*last).closed)
}

func TestAtomicWithoutCommitRollsBack(t *testing.T) {
	db, _, uow, _ := setup()

	err := uow.Atomic(context.Background(), func(c *testContext) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, db.Rollbacks)
}

func TestAtomicPanicRollsBack(t *testing.T) {
	db, _, uow, _ := setup()

	assert.Panics(t, func() {
		_ = uow.Atomic(context.Background(), func(c *testContext) error {
			panic("boom")
		})
	})
	assert.Equal(t, 1, db.Rollbacks)
}

func TestAtomicBeginFailure(t *testing.T) {
	db, _, uow, _ := setup()
	db.BeginError = errors.New("no connection")

	err := uow.Atomic(context.Background(), func(c *testContext) error {
		t.Fatal("must not run")
		return nil
	})

	require.ErrorIs(t, err, db.BeginError)
	require.ErrorIs(t, err, ErrRollback)
}
