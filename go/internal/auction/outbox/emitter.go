package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TickPublisher sends ephemeral tick frames straight to the bus.
type TickPublisher interface {
	PublishTick(auctionID string, envelope []byte) error
}

// Emitter is the engine-facing event sink. Durable events land in the
// outbox table inside the caller's request path; ticks skip the table and
// go straight to the bus.
type Emitter struct {
	repo  *Repository
	ticks TickPublisher
}

func NewEmitter(repo *Repository, ticks TickPublisher) *Emitter {
	return &Emitter{repo: repo, ticks: ticks}
}

func (e *Emitter) Emit(ctx context.Context, auctionID uuid.UUID, eventType string, seq int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return e.repo.Insert(ctx, auctionID, eventType, seq, body)
}

func (e *Emitter) EmitTick(auctionID uuid.UUID, payload any) error {
	if e.ticks == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal tick payload: %w", err)
	}
	envelope, err := json.Marshal(Envelope{
		EventID:   uuid.New().String(),
		AuctionID: auctionID.String(),
		EventType: "tick",
		Timestamp: time.Now().UTC(),
		Payload:   body,
	})
	if err != nil {
		return fmt.Errorf("marshal tick envelope: %w", err)
	}
	return e.ticks.PublishTick(auctionID.String(), envelope)
}
