package model

import "errors"

var (
	ErrInvalidSquare = errors.New("invalid square")
	ErrInvalidPiece  = errors.New("invalid piece")
	ErrInvalidSide   = errors.New("invalid side")
	ErrInvalidMove   = errors.New("invalid move encoding")
	ErrInvalidFEN    = errors.New("invalid fen")
	ErrInvalidBoard  = errors.New("invalid board")
	ErrGameClosed    = errors.New("game closed")
	ErrGameOver      = errors.New("game over")
	ErrAlreadyQueued = errors.New("player already in queue")
)
