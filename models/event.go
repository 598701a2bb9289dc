package models

import "time"

type EventType string

const (
	EventGoal       EventType = "GOAL"
	EventAssist     EventType = "ASSIST"
	EventYellowCard EventType = "YELLOW_CARD"
	EventRedCard    EventType = "RED_CARD"
)

type MatchEvent struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	PlayerID  string    `json:"player_id"`
	EventType EventType `json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}
