package bid

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// Repository provides read access to the append-only bid history. Bids are
// written by the auction repository inside the acceptance transaction;
// nothing here ever mutates a bid.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new bid repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListByAuction returns all accepted bids for an auction in sequence order.
func (r *Repository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	const q = `
		SELECT id, auction_id, asset_id, participant_id, amount, seq, accepted_at
		FROM bids WHERE auction_id = $1
		ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, q, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.AssetID, &b.ParticipantID,
			&b.Amount, &b.Seq, &b.AcceptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}
