package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/events"
)

// AuctionEvent is the frame pushed to WebSocket clients. Seq is the
// auction-scoped sequence clients use to detect gaps; ticks carry their own
// tick sequence inside the payload and always have Seq 0.
type AuctionEvent struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auction_id"`
	Type      string          `json:"type"`
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ParseEventPayload decodes the event's data into its typed payload.
func ParseEventPayload(event *AuctionEvent) (any, error) {
	switch event.Type {
	case events.TypeLotStarted:
		var payload events.LotStartedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeTick:
		var payload events.TickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeBidPlaced:
		var payload events.BidPlacedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeLotComplete:
		var payload events.LotCompletePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeAuctionComplete:
		var payload events.AuctionCompletePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeAuctionPaused:
		var payload events.AuctionPausedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeAuctionResumed:
		var payload events.AuctionResumedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}
