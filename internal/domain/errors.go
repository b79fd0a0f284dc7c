package domain

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrNotHost            = errors.New("only the host can do that")
	ErrAlreadyStarted     = errors.New("game already started")
	ErrPlayerNotInRoom    = errors.New("player not in room")
	ErrMatchNotOver       = errors.New("match is not over")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")
)
