// Package mqttingest receives device readings over MQTT.
//
// Devices publish telemetry batches to a topic such as
// wearables/<session_id>/samples. The single level wildcard of the
// configured filter selects the session the readings belong to.
package mqttingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/telemetry"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/eclipse/paho.golang/paho"
)

var (
	ErrTopicMismatch = errors.New("topic does not match filter")
	ErrBadFilter     = errors.New("filter must contain exactly one '+' segment")
	ErrEmptyPayload  = errors.New("payload contains no readings")
)

// IngestFunc stores readings for a session and reports how many were stored.
type IngestFunc func(ctx context.Context, sessionID string, readings []sensor.Reading) (int, error)

type Config struct {
	URL      string
	Topic    string
	ClientID string
	QoS      byte
	Timeout  time.Duration
}

type Subscriber struct {
	cfg    Config
	ingest IngestFunc
	logger *slog.Logger
	client *paho.Client
}

func New(cfg Config, ingest IngestFunc, logger *slog.Logger) (*Subscriber, error) {
	if _, err := wildcardIndex(cfg.Topic); err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Subscriber{cfg: cfg, ingest: ingest, logger: logger}, nil
}

// Start connects to the broker and subscribes to the configured topic.
// Messages are handled until Stop is called.
func (s *Subscriber) Start(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial mqtt broker %s: %w", s.cfg.URL, err)
	}

	s.client = paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: s.cfg.ClientID,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				s.receive(pr.Packet)
				return true, nil
			},
		},
		OnClientError: func(err error) {
			s.logger.Error("mqtt client error", "error", err)
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			s.logger.Warn("mqtt server disconnected", "reason_code", d.ReasonCode)
		},
	})

	ack, err := s.client.Connect(ctx, &paho.Connect{
		ClientID:   s.cfg.ClientID,
		KeepAlive:  30,
		CleanStart: true,
	})
	if err != nil {
		return fmt.Errorf("connect to mqtt broker: %w", err)
	}
	if ack.ReasonCode != 0 {
		return fmt.Errorf("mqtt broker refused connection: reason code %d", ack.ReasonCode)
	}

	if _, err := s.client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: s.cfg.Topic, QoS: s.cfg.QoS}},
	}); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.cfg.Topic, err)
	}

	s.logger.Info("mqtt ingestion started", "url", s.cfg.URL, "topic", s.cfg.Topic)
	return nil
}

func (s *Subscriber) Stop() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}

func (s *Subscriber) receive(p *paho.Publish) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	n, err := s.handle(ctx, p.Topic, p.Payload)
	if err != nil {
		s.logger.Warn("rejected device message", "topic", p.Topic, "error", err)
		return
	}
	s.logger.Debug("device message stored", "topic", p.Topic, "count", n)
}

func (s *Subscriber) handle(ctx context.Context, topic string, payload []byte) (int, error) {
	sessionID, err := sessionFromTopic(s.cfg.Topic, topic)
	if err != nil {
		return 0, err
	}
	readings, err := decode(payload)
	if err != nil {
		return 0, err
	}
	return s.ingest(ctx, sessionID, readings)
}

// decode accepts either a batch {"data": [...]} or a single reading object.
func decode(payload []byte) ([]sensor.Reading, error) {
	payload = bytes.TrimSpace(payload)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	if _, ok := probe["data"]; ok {
		var batch telemetry.Batch
		if err := json.Unmarshal(payload, &batch); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		if len(batch.Data) == 0 {
			return nil, ErrEmptyPayload
		}
		return batch.ToDomain(), nil
	}

	var reading telemetry.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return nil, fmt.Errorf("decode reading: %w", err)
	}
	return []sensor.Reading{reading.ToDomain()}, nil
}

func wildcardIndex(filter string) (int, error) {
	idx := -1
	for i, segment := range strings.Split(filter, "/") {
		if segment == "#" {
			return 0, ErrBadFilter
		}
		if segment == "+" {
			if idx >= 0 {
				return 0, ErrBadFilter
			}
			idx = i
		}
	}
	if idx < 0 {
		return 0, ErrBadFilter
	}
	return idx, nil
}

func sessionFromTopic(filter, topic string) (string, error) {
	idx, err := wildcardIndex(filter)
	if err != nil {
		return "", err
	}

	filters := strings.Split(filter, "/")
	names := strings.Split(topic, "/")
	if len(filters) != len(names) {
		return "", fmt.Errorf("%w: %s", ErrTopicMismatch, topic)
	}
	for i, f := range filters {
		if i != idx && f != names[i] {
			return "", fmt.Errorf("%w: %s", ErrTopicMismatch, topic)
		}
	}
	if names[idx] == "" {
		return "", fmt.Errorf("%w: empty session id", ErrTopicMismatch)
	}
	return names[idx], nil
}
