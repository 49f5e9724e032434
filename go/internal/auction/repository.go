package auction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/gavel/go/internal/models"
)

// Repository persists the auction aggregate as a single row, with the bid
// ledger, sales, skip set and settings stored as jsonb. Read-modify-write
// only; the engine serializes writers per auction.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

const auctionColumns = `id, room_id, status, settings, participants, current_item_id, current_bid,
	bid_history, sales, unsold_this_run, skipped_groups, timer_deadline, timer_duration_sec,
	created_at, updated_at`

func (r *Repository) CreateAuction(ctx context.Context, a *models.Auction) (*models.Auction, error) {
	cols, err := marshalAggregate(a)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO auctions (id, room_id, status, settings, participants, current_item_id,
			current_bid, bid_history, sales, unsold_this_run, skipped_groups, timer_deadline,
			timer_duration_sec, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING `+auctionColumns,
		a.ID, a.RoomID, string(a.Status), cols.settings, cols.participants, a.CurrentItemID,
		cols.currentBid, cols.bidHistory, cols.sales, cols.unsold, cols.skipped,
		a.TimerDeadline, a.TimerDurationSec,
	)

	created, err := scanAuction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}
	return created, nil
}

func (r *Repository) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)

	a, err := scanAuction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

func (r *Repository) GetAuctionByRoom(ctx context.Context, roomID string) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE room_id = $1`, roomID)

	a, err := scanAuction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction by room: %w", err)
	}
	return a, nil
}

func (r *Repository) SaveAuction(ctx context.Context, a *models.Auction) (*models.Auction, error) {
	cols, err := marshalAggregate(a)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE auctions
		SET status = $2, settings = $3, participants = $4, current_item_id = $5,
			current_bid = $6, bid_history = $7, sales = $8, unsold_this_run = $9,
			skipped_groups = $10, timer_deadline = $11, timer_duration_sec = $12,
			updated_at = now()
		WHERE id = $1
		RETURNING `+auctionColumns,
		a.ID, string(a.Status), cols.settings, cols.participants, a.CurrentItemID,
		cols.currentBid, cols.bidHistory, cols.sales, cols.unsold, cols.skipped,
		a.TimerDeadline, a.TimerDurationSec,
	)

	saved, err := scanAuction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to save auction: %w", err)
	}
	return saved, nil
}

func (r *Repository) FindActiveWithFutureDeadline(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auctionColumns+`
		FROM auctions
		WHERE status = $1 AND timer_deadline IS NOT NULL AND timer_deadline > $2
		ORDER BY timer_deadline`,
		string(models.AuctionStatusActive), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan active auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*models.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan active auction row: %w", err)
		}
		auctions = append(auctions, a)
	}
	return auctions, rows.Err()
}

// jsonCols holds the jsonb payloads of one aggregate row.
type jsonCols struct {
	settings     []byte
	participants []byte
	currentBid   []byte
	bidHistory   []byte
	sales        []byte
	unsold       []byte
	skipped      []byte
}

func marshalAggregate(a *models.Auction) (*jsonCols, error) {
	cols := &jsonCols{}
	var err error

	if cols.settings, err = json.Marshal(a.Settings); err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if cols.participants, err = json.Marshal(orEmptyIDs(a.Participants)); err != nil {
		return nil, fmt.Errorf("failed to marshal participants: %w", err)
	}
	if a.CurrentBid != nil {
		if cols.currentBid, err = json.Marshal(a.CurrentBid); err != nil {
			return nil, fmt.Errorf("failed to marshal current bid: %w", err)
		}
	}
	if cols.bidHistory, err = json.Marshal(orEmptyBids(a.BidHistory)); err != nil {
		return nil, fmt.Errorf("failed to marshal bid history: %w", err)
	}
	if cols.sales, err = json.Marshal(orEmptySales(a.Sales)); err != nil {
		return nil, fmt.Errorf("failed to marshal sales: %w", err)
	}
	if cols.unsold, err = json.Marshal(orEmptyIDs(a.UnsoldThisRun)); err != nil {
		return nil, fmt.Errorf("failed to marshal unsold set: %w", err)
	}
	if cols.skipped, err = json.Marshal(orEmptyIDs(a.SkippedGroups)); err != nil {
		return nil, fmt.Errorf("failed to marshal skipped groups: %w", err)
	}
	return cols, nil
}

func scanAuction(row pgx.Row) (*models.Auction, error) {
	var (
		a          models.Auction
		status     string
		settings   []byte
		parts      []byte
		currentBid []byte
		history    []byte
		sales      []byte
		unsold     []byte
		skipped    []byte
	)

	err := row.Scan(
		&a.ID, &a.RoomID, &status, &settings, &parts, &a.CurrentItemID, &currentBid,
		&history, &sales, &unsold, &skipped, &a.TimerDeadline, &a.TimerDurationSec,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = models.AuctionStatus(status)

	if err := json.Unmarshal(settings, &a.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := json.Unmarshal(parts, &a.Participants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	if len(currentBid) > 0 {
		a.CurrentBid = &models.Bid{}
		if err := json.Unmarshal(currentBid, a.CurrentBid); err != nil {
			return nil, fmt.Errorf("failed to unmarshal current bid: %w", err)
		}
	}
	if err := json.Unmarshal(history, &a.BidHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bid history: %w", err)
	}
	if err := json.Unmarshal(sales, &a.Sales); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sales: %w", err)
	}
	if err := json.Unmarshal(unsold, &a.UnsoldThisRun); err != nil {
		return nil, fmt.Errorf("failed to unmarshal unsold set: %w", err)
	}
	if err := json.Unmarshal(skipped, &a.SkippedGroups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal skipped groups: %w", err)
	}
	return &a, nil
}

func orEmptyIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func orEmptyBids(bids []models.Bid) []models.Bid {
	if bids == nil {
		return []models.Bid{}
	}
	return bids
}

func orEmptySales(sales []models.SaleRecord) []models.SaleRecord {
	if sales == nil {
		return []models.SaleRecord{}
	}
	return sales
}
