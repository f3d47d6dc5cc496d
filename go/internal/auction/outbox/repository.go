package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository implements outbox data access
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new outbox repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one event to the outbox.
func (r *Repository) Insert(ctx context.Context, auctionID uuid.UUID, eventType string, seq int64, payload json.RawMessage) error {
	const q = `
		INSERT INTO auction_events (id, auction_id, event_type, seq, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`

	if _, err := r.db.ExecContext(ctx, q, uuid.New(), auctionID, eventType, seq, []byte(payload)); err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

// FetchUnsentTx fetches unsent events with row locking so concurrent
// worker instances never double-publish the same batch. seq breaks
// created_at ties, which back-to-back inserts for one auction can hit.
func (r *Repository) FetchUnsentTx(ctx context.Context, tx *sql.Tx, limit int32) ([]OutboxEvent, error) {
	const q = `
		SELECT id, auction_id, event_type, seq, payload, created_at
		FROM auction_events
		WHERE sent_at IS NULL
		ORDER BY created_at, seq
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	rows, err := tx.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var (
			e       OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.AuctionID, &e.EventType, &e.Seq, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkSentTx marks the given events as published.
func (r *Repository) MarkSentTx(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	const q = `UPDATE auction_events SET sent_at = now() WHERE id = ANY($1)`

	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	if _, err := tx.ExecContext(ctx, q, pq.Array(strs)); err != nil {
		return fmt.Errorf("failed to mark outbox events as sent: %w", err)
	}
	return nil
}
