package models

import "time"

// AppState is the singleton row (id = 1) holding the check-in order of the
// current night. The order is the arrival sequence and is only mutated by
// explicit lobby actions, never by match events.
type AppState struct {
	ID         int       `json:"id"`
	LobbyOrder []string  `json:"lobby_order"`
	UpdatedAt  time.Time `json:"updated_at"`
}
