package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gabnunesdev/futmais-app/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetActive(ctx context.Context) (*models.Match, error)
	UpdateScore(ctx context.Context, id string, scoreRed, scoreBlue int) error
	UpdateTimer(ctx context.Context, id string, durationSeconds int) error
	UpdateQueue(ctx context.Context, id string, queueIDs []string) error
	UpdateRosters(ctx context.Context, id string, redIDs, blueIDs, queueIDs []string) error
	Finish(ctx context.Context, id string, winner models.TeamColor, scoreRed, scoreBlue int) error
	FinishStale(ctx context.Context, inactiveFor time.Duration) (int64, error)
	ListFinished(ctx context.Context, limit int) ([]*models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}

	query := `
		INSERT INTO matches
			(id, team_red_ids, team_blue_ids, queue_ids, score_red, score_blue,
			 status, duration_seconds, started_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING started_at, last_active_at, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.ID,
		pq.Array(match.TeamRedIDs),
		pq.Array(match.TeamBlueIDs),
		pq.Array(match.QueueIDs),
		match.ScoreRed,
		match.ScoreBlue,
		match.Status,
		match.DurationSeconds,
	).Scan(&match.StartedAt, &match.LastActiveAt, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetActive(ctx context.Context) (*models.Match, error) {
	query := `
		SELECT id, team_red_ids, team_blue_ids, queue_ids, score_red, score_blue,
		       status, winner_color, duration_seconds, started_at, last_active_at,
		       ended_at, created_at
		FROM matches
		WHERE status = $1
		ORDER BY started_at DESC
		LIMIT 1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, models.MatchStatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan active match: %w", err)
	}
	return match, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var winner sql.NullString
	err := row.Scan(
		&match.ID,
		pq.Array(&match.TeamRedIDs),
		pq.Array(&match.TeamBlueIDs),
		pq.Array(&match.QueueIDs),
		&match.ScoreRed,
		&match.ScoreBlue,
		&match.Status,
		&winner,
		&match.DurationSeconds,
		&match.StartedAt,
		&match.LastActiveAt,
		&match.EndedAt,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if winner.Valid {
		color := models.TeamColor(winner.String)
		match.WinnerColor = &color
	}
	return match, nil
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, id string, scoreRed, scoreBlue int) error {
	query := `
		UPDATE matches
		SET score_red = $1, score_blue = $2, last_active_at = NOW()
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, scoreRed, scoreBlue, id)
	if err != nil {
		return fmt.Errorf("failed to update match score: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// UpdateTimer stores the remaining seconds together with a fresh
// last_active_at so the countdown can be reconstructed from elapsed wall
// clock after a reload.
func (r *postgresMatchRepository) UpdateTimer(ctx context.Context, id string, durationSeconds int) error {
	query := `
		UPDATE matches
		SET duration_seconds = $1, last_active_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, durationSeconds, id)
	if err != nil {
		return fmt.Errorf("failed to update match timer: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateQueue(ctx context.Context, id string, queueIDs []string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET queue_ids = $1 WHERE id = $2`, pq.Array(queueIDs), id)
	if err != nil {
		return fmt.Errorf("failed to update match queue: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateRosters(ctx context.Context, id string, redIDs, blueIDs, queueIDs []string) error {
	query := `
		UPDATE matches
		SET team_red_ids = $1, team_blue_ids = $2, queue_ids = $3, last_active_at = NOW()
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, pq.Array(redIDs), pq.Array(blueIDs), pq.Array(queueIDs), id)
	if err != nil {
		return fmt.Errorf("failed to update match rosters: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Finish(ctx context.Context, id string, winner models.TeamColor, scoreRed, scoreBlue int) error {
	query := `
		UPDATE matches
		SET status = $1, winner_color = $2, score_red = $3, score_blue = $4, ended_at = NOW()
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, models.MatchStatusFinished, winner, scoreRed, scoreBlue, id)
	if err != nil {
		return fmt.Errorf("failed to finish match: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// FinishStale closes abandoned in-progress matches as draws. The janitor in
// cmd/main.go calls this periodically.
func (r *postgresMatchRepository) FinishStale(ctx context.Context, inactiveFor time.Duration) (int64, error) {
	query := `
		UPDATE matches
		SET status = $1, winner_color = $2, ended_at = NOW()
		WHERE status = $3 AND last_active_at < NOW() - $4::interval`

	interval := fmt.Sprintf("%d seconds", int(inactiveFor.Seconds()))
	result, err := r.db.ExecContext(ctx, query,
		models.MatchStatusFinished,
		models.ColorDraw,
		models.MatchStatusInProgress,
		interval,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to finish stale matches: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresMatchRepository) ListFinished(ctx context.Context, limit int) ([]*models.Match, error) {
	query := `
		SELECT id, team_red_ids, team_blue_ids, queue_ids, score_red, score_blue,
		       status, winner_color, duration_seconds, started_at, last_active_at,
		       ended_at, created_at
		FROM matches
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, models.MatchStatusFinished, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}
