// Package relay republishes bus events to a Kafka topic so out-of-process
// consumers can follow the same stream the in-process handlers see.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tracksync/tracksync/internal/bus"
)

// Config holds relay settings.
type Config struct {
	Enabled bool     `json:"enabled" envconfig:"ENABLED"`
	Brokers []string `json:"brokers" envconfig:"BROKERS"`
	Topic   string   `json:"topic" envconfig:"TOPIC"`
}

// DefaultConfig returns relay defaults. The relay is off until enabled.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Brokers: []string{"localhost:9092"},
		Topic:   "tracksync.events",
	}
}

// writeTimeout bounds one Kafka produce so a broker outage cannot stall the
// publishing goroutine indefinitely.
const writeTimeout = 10 * time.Second

// Relay forwards every bus event as a JSON message keyed by user id.
type Relay struct {
	writer      *kafka.Writer
	unsubscribe func()
}

// New creates a Relay writing to the configured brokers and topic.
func New(cfg Config) (*Relay, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("relay: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("relay: no topic configured")
	}

	return &Relay{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}, nil
}

// Attach subscribes the relay to the bus. Publish failures are logged and
// dropped; the event stream in Kafka is best-effort, the store stays the
// source of truth.
func (r *Relay) Attach(b *bus.Bus) {
	r.unsubscribe = b.Register("kafka-relay", func(evt bus.Event) {
		blob, err := json.Marshal(evt)
		if err != nil {
			slog.Error("relay encode failed", "event", evt.Type, "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		err = r.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(evt.UserID),
			Value: blob,
			Time:  evt.Timestamp,
		})
		if err != nil {
			slog.Error("relay publish failed", "event", evt.Type, "user", evt.UserID, "error", err)
			return
		}
		slog.Debug("relay published", "event", evt.Type, "user", evt.UserID)
	})
}

// Close detaches from the bus and closes the writer.
func (r *Relay) Close() error {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("relay close: %w", err)
	}
	return nil
}
