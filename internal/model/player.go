package model

import "time"

// Player is a participant known to a game or the matchmaking queue.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// MatchFoundEvent tells a queued player which game it was paired into.
type MatchFoundEvent struct {
	GameID string `json:"gameId"`
	Side   Side   `json:"side"`
}
