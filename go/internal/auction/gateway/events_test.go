package gateway

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/events"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/outbox"
)

func TestParseEventPayloadDecodesTypedPayload(t *testing.T) {
	assetID := uuid.New()
	event := &AuctionEvent{
		Type: events.TypeLotStarted,
		Seq:  1,
		Data: []byte(`{"lot_index":1,"asset_id":"` + assetID.String() + `"}`),
	}

	payload, err := ParseEventPayload(event)
	require.NoError(t, err)

	started, ok := payload.(events.LotStartedPayload)
	require.True(t, ok)
	assert.Equal(t, 1, started.LotIndex)
	assert.Equal(t, assetID, started.AssetID)
}

func TestParseEventPayloadRejectsUnknownType(t *testing.T) {
	_, err := ParseEventPayload(&AuctionEvent{Type: "lot_renamed", Data: []byte(`{}`)})
	assert.Error(t, err)
}

func TestProcessedEnvelopeRejectedWhenTypeUnknown(t *testing.T) {
	envelope := &outbox.Envelope{
		EventID:   uuid.New().String(),
		AuctionID: uuid.New().String(),
		EventType: "lot_renamed",
		Seq:       3,
		Timestamp: time.Now(),
		Payload:   []byte(`{}`),
	}

	wsEvent := toWebSocketEvent(envelope)
	assert.Equal(t, "lot_renamed", wsEvent.Type)

	_, err := ParseEventPayload(wsEvent)
	assert.Error(t, err)
}
