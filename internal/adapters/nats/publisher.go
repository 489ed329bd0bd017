package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"routelayer/internal/core/domain"
)

// Event subjects. Field changes and deprecation signals go out per layer so
// frontends can subscribe to just the layers they display.
const (
	subjectFieldChange = "layers.events.%s.field"
	subjectDeprecation = "layers.events.%s.deprecation"
)

// fieldChangeEvent is the wire form of a published field change.
type fieldChangeEvent struct {
	LayerID string             `json:"layer_id"`
	Change  domain.FieldChange `json:"change"`
	At      time.Time          `json:"at"`
}

// deprecationEvent is the wire form of a published deprecation signal.
type deprecationEvent struct {
	LayerID     string             `json:"layer_id"`
	Deprecation domain.Deprecation `json:"deprecation"`
	At          time.Time          `json:"at"`
}

// Publisher implements ports.LayerEventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure the stream exists. Interest retention: events are for live
	// frontends and audit consumers, not a source of truth.
	cfg := nats.StreamConfig{
		Name:      "LAYER_EVENTS",
		Subjects:  []string{"layers.events.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishFieldChange(ctx context.Context, layerID string, change domain.FieldChange) error {
	data, err := json.Marshal(fieldChangeEvent{LayerID: layerID, Change: change, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(fmt.Sprintf(subjectFieldChange, layerID), data)
	return err
}

func (p *Publisher) PublishDeprecation(ctx context.Context, layerID string, dep domain.Deprecation) error {
	data, err := json.Marshal(deprecationEvent{LayerID: layerID, Deprecation: dep, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(fmt.Sprintf(subjectDeprecation, layerID), data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
