package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"routelayer/internal/core/ports"
)

// statusReport is the wire form of an inbound route status report, published
// by external directions resolvers on layers.status.<layer_id>.
type statusReport struct {
	Status string `json:"status"`
}

// Subscriber implements ports.StatusSubscriber on plain NATS subjects.
// Status reports are ephemeral: a resolver re-reports after reconnect, so
// there is no JetStream durability on the inbound side.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Subscriber{conn: conn}, nil
}

func (s *Subscriber) SubscribeStatusReports(ctx context.Context, handler ports.StatusReportHandler) error {
	sub, err := s.conn.Subscribe("layers.status.>", func(msg *nats.Msg) {
		layerID := strings.TrimPrefix(msg.Subject, "layers.status.")
		if layerID == "" || strings.Contains(layerID, ".") {
			return
		}
		var report statusReport
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			return
		}
		_ = handler(ctx, layerID, report.Status)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
