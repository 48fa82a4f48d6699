package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
app:
  env: prod
db:
  dsn: postgres://localhost/wearable
jwt:
  secret: s3cret
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, Production, cfg.App.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "wearable_events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.MQTT.URL)
	assert.Equal(t, "wearables/+/samples", cfg.MQTT.Topic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, 30, cfg.Stats.DefaultWindowDays)
}

func TestLoadSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal+`
kafka:
  brokers: [kafka-1:9092, kafka-2:9092]
  topic: events
mqtt:
  url: broker:1883
  qos: 2
stats:
  default_window_days: 7
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "events", cfg.Kafka.Topic)
	assert.Equal(t, "broker:1883", cfg.MQTT.URL)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.Equal(t, 7, cfg.Stats.DefaultWindowDays)
}

func TestEnvironmentSetValue(t *testing.T) {
	var e Environment
	require.NoError(t, e.SetValue("dev"))
	assert.Equal(t, Development, e)
	assert.ErrorIs(t, e.SetValue("test"), ErrConfigNotLoaded)
}
