package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrEmptyName      = errors.New("player name must not be empty")
	ErrNameInRoom     = errors.New("name is already seated in this room")

	// Move errors
	ErrInvalidMove = errors.New("invalid move")

	// Room errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrSeatEmpty     = errors.New("seat is not occupied")
	ErrRoomNotReady  = errors.New("room is not ready for moves")
	ErrAlreadyChosen = errors.New("seat has already chosen this round")
)
