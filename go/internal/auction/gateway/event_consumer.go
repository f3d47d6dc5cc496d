package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/events"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/outbox"
)

// JetStreamConsumerConfig holds configuration for the JetStream consumer
type JetStreamConsumerConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string
	SubjectFilter string
	TickSubjects  string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultJetStreamConsumerConfig returns default JetStream consumer configuration
func DefaultJetStreamConsumerConfig() JetStreamConsumerConfig {
	return JetStreamConsumerConfig{
		URL:           nats.DefaultURL,
		StreamName:    "AUCTION_EVENTS",
		ConsumerName:  "auction-gateway",
		SubjectFilter: "auction.events.>",
		TickSubjects:  "auction.ticks.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// EventConsumer bridges the event bus to WebSocket clients. Durable
// auction events arrive through JetStream; ephemeral ticks arrive on plain
// NATS subjects and are forwarded without acknowledgement bookkeeping.
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	js                jetstream.JetStream
	consumer          jetstream.Consumer
	tickSub           *nats.Subscription
	config            JetStreamConsumerConfig
}

// NewEventConsumer connects to NATS and ensures the durable consumer exists.
func NewEventConsumer(cm *ConnectionManager, config JetStreamConsumerConfig) (*EventConsumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
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

	ec := &EventConsumer{
		connectionManager: cm,
		nc:                nc,
		js:                js,
		config:            config,
	}

	if err := ec.ensureConsumer(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}

	return ec, nil
}

func (ec *EventConsumer) ensureConsumer(ctx context.Context) error {
	stream, err := ec.js.Stream(ctx, ec.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumerConfig := jetstream.ConsumerConfig{
		Name:          ec.config.ConsumerName,
		Durable:       ec.config.ConsumerName,
		Description:   "Auction gateway WebSocket consumer",
		FilterSubject: ec.config.SubjectFilter,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    ec.config.MaxDeliver,
		AckWait:       ec.config.AckWait,
		MaxAckPending: ec.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	consumer, err := stream.Consumer(ctx, ec.config.ConsumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, consumerConfig)
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().
			Str("consumer", ec.config.ConsumerName).
			Str("stream", ec.config.StreamName).
			Msg("created JetStream consumer")
	} else {
		log.Info().
			Str("consumer", ec.config.ConsumerName).
			Str("stream", ec.config.StreamName).
			Msg("using existing JetStream consumer")
	}

	ec.consumer = consumer
	return nil
}

// Start consumes durable events and tick frames until ctx is cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", ec.config.ConsumerName).
		Str("stream", ec.config.StreamName).
		Msg("starting event consumer")

	tickSub, err := ec.nc.Subscribe(ec.config.TickSubjects, func(msg *nats.Msg) {
		ec.handleTick(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to ticks: %w", err)
	}
	ec.tickSub = tickSub

	messageCh := make(chan jetstream.Msg, 100)
	consumeCtx, err := ec.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := ec.processMessage(msg); err != nil {
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Msg("failed to process message")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
			} else {
				if ackErr := msg.Ack(); ackErr != nil {
					log.Error().Err(ackErr).Msg("failed to ACK message")
				}
			}
		}
	}
}

func (ec *EventConsumer) processMessage(msg jetstream.Msg) error {
	var envelope outbox.Envelope
	if err := json.Unmarshal(msg.Data(), &envelope); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}

	auctionID, err := uuid.Parse(envelope.AuctionID)
	if err != nil {
		return fmt.Errorf("parse auction ID: %w", err)
	}

	wsEvent := toWebSocketEvent(&envelope)
	if _, err := ParseEventPayload(wsEvent); err != nil {
		return fmt.Errorf("validate event payload: %w", err)
	}

	ec.connectionManager.BroadcastToAuction(auctionID, wsEvent)

	log.Debug().
		Str("event_id", envelope.EventID).
		Str("auction_id", envelope.AuctionID).
		Str("event_type", envelope.EventType).
		Int64("seq", envelope.Seq).
		Msg("event broadcasted to WebSocket clients")
	return nil
}

func (ec *EventConsumer) handleTick(data []byte) {
	var envelope outbox.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Warn().Err(err).Msg("dropping malformed tick")
		return
	}
	auctionID, err := uuid.Parse(envelope.AuctionID)
	if err != nil {
		log.Warn().Err(err).Msg("dropping tick with bad auction ID")
		return
	}
	ec.connectionManager.BroadcastToAuction(auctionID, &AuctionEvent{
		ID:        envelope.EventID,
		AuctionID: envelope.AuctionID,
		Type:      events.TypeTick,
		Timestamp: envelope.Timestamp,
		Data:      envelope.Payload,
	})
}

func toWebSocketEvent(envelope *outbox.Envelope) *AuctionEvent {
	return &AuctionEvent{
		ID:        envelope.EventID,
		AuctionID: envelope.AuctionID,
		Type:      envelope.EventType,
		Seq:       envelope.Seq,
		Timestamp: envelope.Timestamp,
		Data:      envelope.Payload,
	}
}

// Stop gracefully shuts down the event consumer
func (ec *EventConsumer) Stop() error {
	log.Info().Msg("stopping event consumer")

	if ec.tickSub != nil {
		if err := ec.tickSub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to unsubscribe from ticks")
		}
	}
	if ec.nc != nil {
		ec.nc.Close()
	}
	return nil
}
