package mqttingest

import (
	"context"
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/testsupport"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokerAddr = "127.0.0.1:18883"

type delivery struct {
	sessionID string
	readings  []sensor.Reading
}

// startBroker runs an in-process broker that accepts every client.
func startBroker(t *testing.T) *mochi.Server {
	t.Helper()
	server := mochi.New(&mochi.Options{InlineClient: true})
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))
	require.NoError(t, server.AddListener(listeners.NewTCP(listeners.Config{
		ID:      "t1",
		Type:    "tcp",
		Address: brokerAddr,
	})))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func TestSubscriberReceivesFromBroker(t *testing.T) {
	broker := startBroker(t)

	got := make(chan delivery, 4)
	sub, err := New(Config{
		URL:      brokerAddr,
		Topic:    filter,
		ClientID: "ingest-test",
		QoS:      1,
	}, func(ctx context.Context, sessionID string, readings []sensor.Reading) (int, error) {
		got <- delivery{sessionID: sessionID, readings: readings}
		return len(readings), nil
	}, testsupport.Logger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sub.Start(ctx))
	t.Cleanup(func() { _ = sub.Stop() })

	require.NoError(t, broker.Publish(
		"wearables/session-1/samples",
		[]byte(`{"data":[{"heart_rate":120},{"heart_rate":130,"steps":4}]}`),
		false, 1,
	))
	require.NoError(t, broker.Publish("wearables/session-1/other", []byte(`{"heart_rate":1}`), false, 1))
	require.NoError(t, broker.Publish("wearables/session-2/samples", []byte(`{"heart_rate":90}`), false, 1))

	select {
	case d := <-got:
		assert.Equal(t, "session-1", d.sessionID)
		require.Len(t, d.readings, 2)
		assert.Equal(t, 130.0, *d.readings[1].HeartRate)
	case <-ctx.Done():
		t.Fatal("batch was not delivered")
	}

	select {
	case d := <-got:
		assert.Equal(t, "session-2", d.sessionID)
		require.Len(t, d.readings, 1)
	case <-ctx.Done():
		t.Fatal("single reading was not delivered")
	}
}
