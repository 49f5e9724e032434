package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

// AuctionRepository defines what the app layer needs from the repository.
type AuctionRepository interface {
	CreateAuction(ctx context.Context, a *models.Auction) (*models.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	GetAuctionByRoom(ctx context.Context, roomID string) (*models.Auction, error)
	SaveAuction(ctx context.Context, a *models.Auction) (*models.Auction, error)
	FindActiveWithFutureDeadline(ctx context.Context, now time.Time) ([]*models.Auction, error)
}

// App is the durable-store access layer the engine and transport sit on.
type App struct {
	repo AuctionRepository
}

// NewApp creates a new auction App.
func NewApp(repo AuctionRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateAuction persists a freshly built aggregate.
func (a *App) CreateAuction(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	if auction.RoomID == "" {
		return nil, fmt.Errorf("room_id is required")
	}
	if auction.Status != models.AuctionStatusDraft {
		return nil, fmt.Errorf("new auctions must be created in %s state", models.AuctionStatusDraft)
	}

	created, err := a.repo.CreateAuction(ctx, auction)
	if err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}
	return created, nil
}

// GetAuction retrieves an aggregate by id.
func (a *App) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	auction, err := a.repo.GetAuction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return auction, nil
}

// GetAuctionByRoom retrieves the aggregate routed to a room.
func (a *App) GetAuctionByRoom(ctx context.Context, roomID string) (*models.Auction, error) {
	auction, err := a.repo.GetAuctionByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction for room %s: %w", roomID, err)
	}
	return auction, nil
}

// SaveAuction persists the full aggregate state.
func (a *App) SaveAuction(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	saved, err := a.repo.SaveAuction(ctx, auction)
	if err != nil {
		return nil, fmt.Errorf("failed to save auction: %w", err)
	}
	return saved, nil
}

// FindActiveWithFutureDeadline returns Active auctions whose countdown was
// mid-flight, for the restart recovery pass.
func (a *App) FindActiveWithFutureDeadline(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	auctions, err := a.repo.FindActiveWithFutureDeadline(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find recoverable auctions: %w", err)
	}
	return auctions, nil
}
