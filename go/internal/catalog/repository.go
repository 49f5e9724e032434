package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/gavel/go/internal/models"
)

// Repository implements item persistence over postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

const itemColumns = `id, name, base_price, position, owner_group_id, created_at, updated_at`

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)

	item, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// FindNextUnsettled returns the first unowned item outside the exclude
// set in catalog order, or nil when none remain.
func (r *Repository) FindNextUnsettled(ctx context.Context, exclude []uuid.UUID) (*models.Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE owner_group_id IS NULL AND NOT (id = ANY($1))
		ORDER BY name, id
		LIMIT 1`,
		orEmpty(exclude),
	)

	item, err := scanItem(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find next unsettled item: %w", err)
	}
	return item, nil
}

// ListUnsettledIDs returns every unowned item outside the exclude set in
// catalog order.
func (r *Repository) ListUnsettledIDs(ctx context.Context, exclude []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM items
		WHERE owner_group_id IS NULL AND NOT (id = ANY($1))
		ORDER BY name, id`,
		orEmpty(exclude),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled items: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AssignOwner binds a sold item to the winning group. The IS NULL guard
// keeps a duplicate settlement pass from reassigning it.
func (r *Repository) AssignOwner(ctx context.Context, itemID, groupID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE items
		SET owner_group_id = $2, updated_at = now()
		WHERE id = $1 AND owner_group_id IS NULL`,
		itemID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign item owner: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID, &item.Name, &item.BasePrice, &item.Position, &item.OwnerGroupID,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func orEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
