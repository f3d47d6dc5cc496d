package auction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
	"github.com/darrengowling/joeyjones-sub001/go/internal/sqlutil"
)

const auctionColumns = `
	id, league_id, owner_id, status, asset_queue, lot_index, current_asset_id,
	current_bid_amount, current_bidder_id, bid_seq, event_seq, lot_deadline,
	paused_remaining_ms, unsold_assets, reoffer_done, lots_sold, settings,
	created_at, updated_at`

// Repository implements auction data access. All multi-row transitions run
// in a single transaction so a failed write leaves the stored auction in
// its prior consistent state.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new auction repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateAuction creates an auction in WAITING with its randomized queue.
func (r *Repository) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error) {
	queueBytes, err := json.Marshal(req.AssetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal asset queue: %w", err)
	}
	settingsBytes, err := json.Marshal(req.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auction settings: %w", err)
	}

	const q = `
		INSERT INTO auctions (
			id, league_id, owner_id, status, asset_queue, lot_index,
			bid_seq, event_seq, unsold_assets, reoffer_done, lots_sold,
			settings, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, 0, 0, 0, '[]'::jsonb, false, 0, $6, now(), now())
		RETURNING ` + auctionColumns

	row := r.db.QueryRowContext(ctx, q,
		uuid.New(), req.LeagueID, req.OwnerID, models.AuctionStatusWaiting, queueBytes, settingsBytes)
	a, err := scanAuction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}
	return a, nil
}

// GetAuction retrieves an auction by ID
func (r *Repository) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	q := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`

	a, err := scanAuction(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("auction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

// ListAuctionsByStatus retrieves auctions in a given status, used at boot
// to rehydrate rooms for in-flight auctions.
func (r *Repository) ListAuctionsByStatus(ctx context.Context, status models.AuctionStatus) ([]models.Auction, error) {
	q := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []models.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, *a)
	}
	return auctions, rows.Err()
}

// AcceptBid appends the bid and updates the auction's cached bid fields.
// The update is guarded by a compare-and-swap on bid_seq: if another bid
// committed first the whole transaction fails with ErrSeqConflict.
func (r *Repository) AcceptBid(ctx context.Context, p AcceptBidParams) (*models.Bid, error) {
	bid := &models.Bid{
		ID:            uuid.New(),
		AuctionID:     p.AuctionID,
		AssetID:       p.AssetID,
		ParticipantID: p.ParticipantID,
		Amount:        p.Amount,
		Seq:           p.ExpectedSeq + 1,
		AcceptedAt:    p.AcceptedAt,
	}

	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		const casQ = `
			UPDATE auctions
			SET current_bid_amount = $1, current_bidder_id = $2,
			    bid_seq = bid_seq + 1, event_seq = $3, lot_deadline = $4, updated_at = now()
			WHERE id = $5 AND bid_seq = $6 AND status = $7
			RETURNING bid_seq`

		var newSeq int64
		err := tx.QueryRowContext(ctx, casQ,
			p.Amount, p.ParticipantID, p.EventSeq, p.Deadline,
			p.AuctionID, p.ExpectedSeq, models.AuctionStatusActive).Scan(&newSeq)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeqConflict
		}
		if err != nil {
			return fmt.Errorf("failed to update cached bid state: %w", err)
		}

		const insQ = `
			INSERT INTO bids (id, auction_id, asset_id, participant_id, amount, seq, accepted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := tx.ExecContext(ctx, insQ,
			bid.ID, bid.AuctionID, bid.AssetID, bid.ParticipantID, bid.Amount, bid.Seq, bid.AcceptedAt); err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

// StartLot transitions the auction to ACTIVE on the given lot.
func (r *Repository) StartLot(ctx context.Context, p StartLotParams) error {
	const q = `
		UPDATE auctions
		SET status = $1, lot_index = $2, current_asset_id = $3,
		    current_bid_amount = NULL, current_bidder_id = NULL,
		    lot_deadline = $4, paused_remaining_ms = NULL, event_seq = $5, updated_at = now()
		WHERE id = $6`

	if _, err := r.db.ExecContext(ctx, q,
		models.AuctionStatusActive, p.LotIndex, p.AssetID, p.Deadline, p.EventSeq, p.AuctionID); err != nil {
		return fmt.Errorf("failed to start lot: %w", err)
	}
	return nil
}

// Pause stores the remaining lot time and clears the deadline.
func (r *Repository) Pause(ctx context.Context, p PauseParams) error {
	const q = `
		UPDATE auctions
		SET status = $1, lot_deadline = NULL, paused_remaining_ms = $2, event_seq = $3, updated_at = now()
		WHERE id = $4 AND status = $5`

	res, err := r.db.ExecContext(ctx, q,
		models.AuctionStatusPaused, p.Remaining.Milliseconds(), p.EventSeq,
		p.AuctionID, models.AuctionStatusActive)
	if err != nil {
		return fmt.Errorf("failed to pause auction: %w", err)
	}
	return requireRow(res, "pause")
}

// Resume restores the deadline and reactivates the auction.
func (r *Repository) Resume(ctx context.Context, p ResumeParams) error {
	const q = `
		UPDATE auctions
		SET status = $1, lot_deadline = $2, paused_remaining_ms = NULL, event_seq = $3, updated_at = now()
		WHERE id = $4 AND status = $5`

	res, err := r.db.ExecContext(ctx, q,
		models.AuctionStatusActive, p.Deadline, p.EventSeq,
		p.AuctionID, models.AuctionStatusPaused)
	if err != nil {
		return fmt.Errorf("failed to resume auction: %w", err)
	}
	return requireRow(res, "resume")
}

// ResolveLot commits a lot resolution. Budget deduction and roster append
// happen atomically with the lot advance so a re-entrant expiration signal
// can never award the same lot twice.
func (r *Repository) ResolveLot(ctx context.Context, p ResolveLotParams) error {
	queueBytes, err := json.Marshal(p.NewQueue)
	if err != nil {
		return fmt.Errorf("failed to marshal asset queue: %w", err)
	}
	unsoldBytes, err := json.Marshal(p.NewUnsold)
	if err != nil {
		return fmt.Errorf("failed to marshal unsold set: %w", err)
	}

	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if p.WinnerID != nil {
			const awardQ = `
				UPDATE participants
				SET remaining_budget = remaining_budget - $1,
				    won_assets = won_assets || jsonb_build_array($2::text),
				    updated_at = now()
				WHERE id = $3 AND remaining_budget >= $1`

			res, err := tx.ExecContext(ctx, awardQ, *p.Amount, p.AssetID.String(), *p.WinnerID)
			if err != nil {
				return fmt.Errorf("failed to award lot: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n != 1 {
				return fmt.Errorf("award for participant %s violated budget invariant", p.WinnerID)
			}
		}

		const advanceQ = `
			UPDATE auctions
			SET status = $1, lot_index = $2, current_asset_id = $3,
			    current_bid_amount = NULL, current_bidder_id = NULL,
			    lot_deadline = $4, asset_queue = $5, unsold_assets = $6,
			    reoffer_done = $7, lots_sold = $8, event_seq = $9, updated_at = now()
			WHERE id = $10`

		if _, err := tx.ExecContext(ctx, advanceQ,
			p.Status, p.LotIndex, sqlutil.NullUUID(p.NextAssetID), sqlutil.NullTime(p.NextDeadline),
			queueBytes, unsoldBytes, p.ReofferDone, p.LotsSold, p.EventSeq, p.AuctionID); err != nil {
			return fmt.Errorf("failed to advance lot: %w", err)
		}
		return nil
	})
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%s: auction not in expected state", op)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (*models.Auction, error) {
	var (
		a             models.Auction
		err           error
		queueBytes    []byte
		unsoldBytes   []byte
		settingsBytes []byte
		currentAsset  sql.NullString
		bidAmount     sql.NullInt64
		bidder        sql.NullString
		deadline      sql.NullTime
		pausedMs      sql.NullInt64
	)
	if err = row.Scan(&a.ID, &a.LeagueID, &a.OwnerID, &a.Status, &queueBytes, &a.LotIndex,
		&currentAsset, &bidAmount, &bidder, &a.BidSeq, &a.EventSeq, &deadline,
		&pausedMs, &unsoldBytes, &a.ReofferDone, &a.LotsSold, &settingsBytes,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(queueBytes, &a.AssetQueue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset queue: %w", err)
	}
	if err := json.Unmarshal(unsoldBytes, &a.UnsoldAssets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal unsold set: %w", err)
	}
	if err := json.Unmarshal(settingsBytes, &a.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auction settings: %w", err)
	}

	if a.CurrentAssetID, err = sqlutil.UUIDPtr(currentAsset); err != nil {
		return nil, fmt.Errorf("invalid current asset id: %w", err)
	}
	if a.CurrentBidderID, err = sqlutil.UUIDPtr(bidder); err != nil {
		return nil, fmt.Errorf("invalid current bidder id: %w", err)
	}
	a.CurrentBidAmount = sqlutil.Int64Ptr(bidAmount)
	a.LotDeadline = sqlutil.TimePtr(deadline)
	if pausedMs.Valid {
		d := time.Duration(pausedMs.Int64) * time.Millisecond
		a.PausedRemaining = &d
	}
	return &a, nil
}
