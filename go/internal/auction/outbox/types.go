package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is one committed auction transition awaiting (or past)
// publication. Seq is the auction-scoped sequence clients use to detect
// gaps and resynchronize.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	EventType string          `json:"event_type"`
	Seq       int64           `json:"seq"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// EventPublisher delivers outbox events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
