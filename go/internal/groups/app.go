package groups

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/models"
)

// GroupRepository defines what the app layer needs from the repository.
type GroupRepository interface {
	CreateGroup(ctx context.Context, g *models.Group) (*models.Group, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error)
	ListGroups(ctx context.Context, ids []uuid.UUID) ([]*models.Group, error)
	GetBudget(ctx context.Context, id uuid.UUID) (int64, error)
	Debit(ctx context.Context, id uuid.UUID, amount int64) error
	GetGroupByCaptain(ctx context.Context, identityID uuid.UUID) (*models.Group, error)
}

// App provides group business logic on top of the repository.
type App struct {
	repo GroupRepository
}

// NewApp creates a new group App.
func NewApp(repo GroupRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateGroup validates and persists a new group.
func (a *App) CreateGroup(ctx context.Context, g *models.Group) (*models.Group, error) {
	if g.Name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if g.Budget < 0 {
		return nil, fmt.Errorf("group budget cannot be negative")
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}

	created, err := a.repo.CreateGroup(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	log.Info().
		Str("group_id", created.ID.String()).
		Str("name", created.Name).
		Int64("budget", created.Budget).
		Msg("created group")
	return created, nil
}

// GetGroup retrieves a group by id.
func (a *App) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	return a.repo.GetGroup(ctx, id)
}

// ListGroups retrieves the named groups.
func (a *App) ListGroups(ctx context.Context, ids []uuid.UUID) ([]*models.Group, error) {
	return a.repo.ListGroups(ctx, ids)
}

// GetBudget returns the group's current budget.
func (a *App) GetBudget(ctx context.Context, groupID uuid.UUID) (int64, error) {
	return a.repo.GetBudget(ctx, groupID)
}

// Debit subtracts amount from the group's budget, failing rather than
// letting the balance go negative.
func (a *App) Debit(ctx context.Context, groupID uuid.UUID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit amount cannot be negative")
	}
	if err := a.repo.Debit(ctx, groupID, amount); err != nil {
		return err
	}

	log.Info().
		Str("group_id", groupID.String()).
		Int64("amount", amount).
		Msg("debited group budget")
	return nil
}

// ResolveGroupForIdentity returns the group the identity captains, or nil
// when the identity has no binding.
func (a *App) ResolveGroupForIdentity(ctx context.Context, identityID uuid.UUID) (*models.Group, error) {
	g, err := a.repo.GetGroupByCaptain(ctx, identityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve group for identity: %w", err)
	}
	return g, nil
}
