package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gabnunesdev/futmais-app/models"
	"github.com/google/uuid"
)

var ErrEventNotFound = errors.New("match event not found")

type EventRepository interface {
	Create(ctx context.Context, event *models.MatchEvent) error
	Delete(ctx context.Context, id string) error
	ListByMatch(ctx context.Context, matchID string) ([]models.MatchEvent, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.MatchEvent, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.MatchEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	query := `
		INSERT INTO match_events (id, match_id, player_id, event_type)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.ID,
		event.MatchID,
		event.PlayerID,
		event.EventType,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM match_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match event: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) ListByMatch(ctx context.Context, matchID string) ([]models.MatchEvent, error) {
	query := `
		SELECT id, match_id, player_id, event_type, created_at
		FROM match_events
		WHERE match_id = $1
		ORDER BY created_at ASC`

	return r.list(ctx, query, matchID)
}

func (r *postgresEventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.MatchEvent, error) {
	query := `
		SELECT id, match_id, player_id, event_type, created_at
		FROM match_events
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC`

	return r.list(ctx, query, from, to)
}

func (r *postgresEventRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.MatchEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list match events: %w", err)
	}
	defer rows.Close()

	var events []models.MatchEvent
	for rows.Next() {
		var ev models.MatchEvent
		if err := rows.Scan(&ev.ID, &ev.MatchID, &ev.PlayerID, &ev.EventType, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match event row: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
