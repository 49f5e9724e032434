package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/models"
)

// ItemRepository defines what the app layer needs from the repository.
type ItemRepository interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	FindNextUnsettled(ctx context.Context, exclude []uuid.UUID) (*models.Item, error)
	ListUnsettledIDs(ctx context.Context, exclude []uuid.UUID) ([]uuid.UUID, error)
	AssignOwner(ctx context.Context, itemID, groupID uuid.UUID) error
}

// App provides catalog business logic on top of the repository.
type App struct {
	repo ItemRepository
}

// NewApp creates a new catalog App.
func NewApp(repo ItemRepository) *App {
	return &App{
		repo: repo,
	}
}

// GetItem retrieves a catalog entry by id.
func (a *App) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return a.repo.GetItem(ctx, id)
}

// FindNextUnsettled returns the next biddable item outside the exclude
// set, or nil when the catalog is exhausted.
func (a *App) FindNextUnsettled(ctx context.Context, exclude []uuid.UUID) (*models.Item, error) {
	return a.repo.FindNextUnsettled(ctx, exclude)
}

// ListUnsettledIDs returns every biddable item id outside the exclude set.
func (a *App) ListUnsettledIDs(ctx context.Context, exclude []uuid.UUID) ([]uuid.UUID, error) {
	return a.repo.ListUnsettledIDs(ctx, exclude)
}

// AssignOwner binds a sold item to its winning group.
func (a *App) AssignOwner(ctx context.Context, itemID, groupID uuid.UUID) error {
	if err := a.repo.AssignOwner(ctx, itemID, groupID); err != nil {
		return err
	}

	log.Info().
		Str("item_id", itemID.String()).
		Str("group_id", groupID.String()).
		Msg("bound item to group")
	return nil
}
