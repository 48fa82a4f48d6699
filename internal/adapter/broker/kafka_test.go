package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain/goal"
	"github.com/burenotti/wearable_backend/internal/testsupport"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, testsupport.Logger())
	at := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), &goal.CompletedEvent{At: at, GoalID: "g1", UserID: "u1", TargetValue: 10, Value: 12})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "u1", string(msg.Key))
	assert.Equal(t, goal.EventCompleted, string(msg.Headers[0].Value))

	var got struct {
		Type        string          `json:"type"`
		PublishedAt time.Time       `json:"published_at"`
		Payload     json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, goal.EventCompleted, got.Type)
	assert.True(t, at.Equal(got.PublishedAt))
	assert.JSONEq(t, `{"at":"2024-01-05T08:00:00Z","goal_id":"g1","user_id":"u1","target_value":10,"value":12}`, string(got.Payload))
}

func TestHandlerReportsWriteFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newPublisher(w, testsupport.Logger())

	err := p.Handler(time.Second)(&goal.CreatedEvent{GoalID: "g1", UserID: "u1"})
	require.Error(t, err)
	assert.Empty(t, w.msgs)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
