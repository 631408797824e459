package tournament

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrNotFound         = errors.New("tournament not found")
	ErrInvalidStatus    = errors.New("invalid tournament status")
	ErrTournamentFull   = errors.New("tournament is full")
	ErrDuplicatePlayer  = errors.New("player name already registered")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrPlayerEliminated = errors.New("player is eliminated")
)
