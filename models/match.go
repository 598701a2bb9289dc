package models

import "time"

type MatchStatus string

const (
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusFinished   MatchStatus = "FINISHED"
)

// TeamColor identifies a side of the current match. Colors do not carry any
// identity across matches: after a rotation the losing blue squad may well
// come back as red.
type TeamColor string

const (
	ColorRed  TeamColor = "RED"
	ColorBlue TeamColor = "BLUE"
	ColorDraw TeamColor = "DRAW"
)

type Match struct {
	ID              string      `json:"id"`
	TeamRedIDs      []string    `json:"team_red_ids"`
	TeamBlueIDs     []string    `json:"team_blue_ids"`
	QueueIDs        []string    `json:"queue_ids"`
	ScoreRed        int         `json:"score_red"`
	ScoreBlue       int         `json:"score_blue"`
	Status          MatchStatus `json:"status"`
	WinnerColor     *TeamColor  `json:"winner_color,omitempty"`
	DurationSeconds int         `json:"duration_seconds"`
	StartedAt       time.Time   `json:"started_at"`
	LastActiveAt    time.Time   `json:"last_active_at"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}
