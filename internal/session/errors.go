package session

import "errors"

var (
	// ErrFinished is returned by every gameplay mutator once a game is finished.
	ErrFinished = errors.New("game is finished")
	// ErrInvalidTransition means the clock is not in a state that allows the requested change.
	ErrInvalidTransition = errors.New("invalid clock transition")
	// ErrPlayerNotInLineup means the referenced player has no lineup entry in the game.
	ErrPlayerNotInLineup = errors.New("player not in lineup")
	// ErrInvalidMove covers unknown locations and moves that don't fit the player's current location.
	ErrInvalidMove = errors.New("invalid move")
	// ErrInvalidPosition means a field placement lacks a position or lies outside the pitch.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrInvalidTeam means an event side other than home or away.
	ErrInvalidTeam = errors.New("invalid team")
)
