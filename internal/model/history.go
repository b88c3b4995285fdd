package model

import "time"

// HistoryMove records one accepted turn.
type HistoryMove struct {
	SubmitterID string    `json:"conId"`
	Name        string    `json:"name"`
	Move        Move      `json:"move"`
	Time        time.Time `json:"time"`
}

// History is append-only; its length is the turn counter.
type History struct {
	Moves []HistoryMove `json:"moves"`
}

func (h History) Len() int {
	return len(h.Moves)
}

// Last returns the most recent entry, if any.
func (h History) Last() (HistoryMove, bool) {
	if len(h.Moves) == 0 {
		return HistoryMove{}, false
	}
	return h.Moves[len(h.Moves)-1], true
}

// Clone copies the entries so the result does not alias h.
func (h History) Clone() History {
	moves := make([]HistoryMove, len(h.Moves))
	copy(moves, h.Moves)
	return History{Moves: moves}
}

// PlainMoves returns the moves without their metadata.
func (h History) PlainMoves() []Move {
	moves := make([]Move, len(h.Moves))
	for i, hm := range h.Moves {
		moves[i] = hm.Move
	}
	return moves
}
