package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

type agentRepository struct {
	db *pgxpool.Pool
}

// NewAgentRepository creates an authorization list backed by the given pool.
func NewAgentRepository(db *pgxpool.Pool) repository.AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) Set(ctx context.Context, identity string, authorized bool) error {
	query := `
        INSERT INTO authorized_agents (identity, authorized, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (identity) DO UPDATE SET
            authorized = EXCLUDED.authorized,
            updated_at = NOW()
    `

	_, err := r.db.Exec(ctx, query, identity, authorized)
	if err != nil {
		return fmt.Errorf("failed to set agent authorization: %w", err)
	}

	return nil
}

func (r *agentRepository) IsAuthorized(ctx context.Context, identity string) (bool, error) {
	query := `SELECT authorized FROM authorized_agents WHERE identity = $1`

	var authorized bool
	err := r.db.QueryRow(ctx, query, identity).Scan(&authorized)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check agent authorization: %w", err)
	}

	return authorized, nil
}
