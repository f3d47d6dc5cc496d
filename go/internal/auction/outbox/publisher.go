package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds connection settings for the event bus.
type NATSConfig struct {
	URL           string
	StreamName    string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS publisher configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		StreamName:    "AUCTION_EVENTS",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Envelope is the wire format shared by the publisher and the gateway
// consumer.
type Envelope struct {
	EventID   string          `json:"eventId"`
	AuctionID string          `json:"auctionId"`
	EventType string          `json:"eventType"`
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NATSPublisher publishes committed events to a JetStream stream and
// ephemeral ticks to plain NATS subjects.
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config NATSConfig
}

// NewNATSPublisher connects to NATS and ensures the event stream exists.
func NewNATSPublisher(ctx context.Context, config NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      config.StreamName,
		Subjects:  []string{"auction.events.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return &NATSPublisher{nc: nc, js: js, config: config}, nil
}

// Publish sends one committed event to JetStream. Per-subject ordering is
// preserved, which keeps per-auction commit order intact on the consumer
// side.
func (p *NATSPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	subject := fmt.Sprintf("auction.events.%s", event.AuctionID)

	envelope := Envelope{
		EventID:   event.ID.String(),
		AuctionID: event.AuctionID.String(),
		EventType: event.EventType,
		Seq:       event.Seq,
		Timestamp: event.CreatedAt,
		Payload:   event.Payload,
	}
	messageBytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, messageBytes); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// PublishTick sends an ephemeral timer tick on a plain NATS subject.
// Ticks are fire-and-forget: a missed tick is replaced by the next one a
// second later, so they bypass the outbox and the stream entirely.
func (p *NATSPublisher) PublishTick(auctionID string, envelope []byte) error {
	subject := fmt.Sprintf("auction.ticks.%s", auctionID)
	return p.nc.Publish(subject, envelope)
}

// Close drains the underlying connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
