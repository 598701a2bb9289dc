package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed = errors.New("validation failed")

	ErrPlayerNotFound = errors.New("player not found")
	ErrMatchNotFound  = errors.New("match not found")

	// Session state machine violations.
	ErrNoDraftInProgress = errors.New("no draft in progress")
	ErrNoActiveMatch     = errors.New("no active match")
	ErrMatchInProgress   = errors.New("a match is already in progress")
	ErrInvalidWinner     = errors.New("winner must be RED or BLUE")
)
