package models

import "time"

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Stars     int       `json:"stars"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	AvatarKey *string `json:"-"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
