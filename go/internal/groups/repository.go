package groups

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/gavel/go/internal/models"
)

// ErrInsufficientBudget is returned when a debit would take a budget
// negative.
var ErrInsufficientBudget = errors.New("insufficient budget")

// Repository implements group persistence over postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

const groupColumns = `id, name, budget, captain_identity_id, created_at, updated_at`

func (r *Repository) CreateGroup(ctx context.Context, g *models.Group) (*models.Group, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO groups (id, name, budget, captain_identity_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+groupColumns,
		g.ID, g.Name, g.Budget, g.CaptainIdentityID,
	)

	created, err := scanGroup(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return created, nil
}

func (r *Repository) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id)

	g, err := scanGroup(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGroups(ctx context.Context, ids []uuid.UUID) ([]*models.Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *Repository) GetBudget(ctx context.Context, id uuid.UUID) (int64, error) {
	var budget int64
	err := r.pool.QueryRow(ctx, `SELECT budget FROM groups WHERE id = $1`, id).Scan(&budget)
	if err != nil {
		return 0, fmt.Errorf("failed to get budget: %w", err)
	}
	return budget, nil
}

// Debit subtracts amount from the group's budget. The WHERE guard makes
// the write conditional on the balance covering the amount, so a budget
// can never go negative even under concurrent settlement.
func (r *Repository) Debit(ctx context.Context, id uuid.UUID, amount int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE groups
		SET budget = budget - $2, updated_at = now()
		WHERE id = $1 AND budget >= $2`,
		id, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to debit budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBudget
	}
	return nil
}

// GetGroupByCaptain returns the group captained by the given identity, or
// pgx.ErrNoRows when the identity captains none.
func (r *Repository) GetGroupByCaptain(ctx context.Context, identityID uuid.UUID) (*models.Group, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE captain_identity_id = $1`, identityID)

	g, err := scanGroup(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get group by captain: %w", err)
	}
	return g, nil
}

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Budget, &g.CaptainIdentityID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
