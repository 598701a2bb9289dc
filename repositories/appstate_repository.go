package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// The lobby order lives in a singleton row so the night's check-in sequence
// survives reloads. Row 1 is created by the schema migration.
const appStateID = 1

var ErrAppStateNotFound = errors.New("app state row not found")

type AppStateRepository interface {
	GetLobbyOrder(ctx context.Context) ([]string, error)
	SetLobbyOrder(ctx context.Context, order []string) error
}

type postgresAppStateRepository struct {
	db *sql.DB
}

func NewPostgresAppStateRepository(db *sql.DB) AppStateRepository {
	return &postgresAppStateRepository{db: db}
}

func (r *postgresAppStateRepository) GetLobbyOrder(ctx context.Context) ([]string, error) {
	var order []string
	err := r.db.QueryRowContext(ctx,
		`SELECT lobby_order FROM app_state WHERE id = $1`, appStateID,
	).Scan(pq.Array(&order))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppStateNotFound
		}
		return nil, fmt.Errorf("failed to scan lobby order: %w", err)
	}
	return order, nil
}

func (r *postgresAppStateRepository) SetLobbyOrder(ctx context.Context, order []string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE app_state SET lobby_order = $1, updated_at = NOW() WHERE id = $2`,
		pq.Array(order), appStateID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lobby order: %w", err)
	}
	return checkAffectedRows(result, ErrAppStateNotFound)
}
