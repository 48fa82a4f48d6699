package messagebus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event string

func (e event) Type() string           { return string(e) }
func (e event) PublishedAt() time.Time { return time.Time{} }

func TestPublishDispatchesByType(t *testing.T) {
	bus := New(testsupport.Logger())
	var a, b atomic.Int32

	bus.Register("a", func(domain.Event) error { a.Add(1); return nil })
	bus.RegisterMany([]string{"a", "b"}, func(domain.Event) error { b.Add(1); return nil })

	require.NoError(t, bus.PublishEvents(event("a"), event("b"), event("c")))
	bus.Close()

	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(2), b.Load())
}

func TestPanickingHandlerDoesNotCrash(t *testing.T) {
	bus := New(testsupport.Logger())
	var called atomic.Bool

	bus.Register("a", func(domain.Event) error { panic("boom") })
	bus.Register("a", func(domain.Event) error { called.Store(true); return nil })

	require.NoError(t, bus.PublishEvents(event("a")))
	bus.Close()

	assert.True(t, called.Load())
}
