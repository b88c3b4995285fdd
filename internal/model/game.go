package model

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	DefaultQueueSize      = 5
	DefaultBroadcastDepth = 5
)

type MoveStatus uint8

const (
	MoveOK MoveStatus = iota
	MoveAlreadyMoved
	MoveStale
	MoveWrong
)

func (s MoveStatus) String() string {
	switch s {
	case MoveOK:
		return "ok"
	case MoveAlreadyMoved:
		return "alreadyMoved"
	case MoveStale:
		return "stale"
	}
	return "wrongMove"
}

// Submission is a move offered to a session. TurnIndex is the history
// length the submitter saw when it chose the move.
type Submission struct {
	SubmitterID string
	Name        string
	TurnIndex   int
	Move        Move
}

// MoveResult is the actor's answer to a submission. Board and Entry are set
// for MoveOK, LastMover for MoveStale.
type MoveResult struct {
	Status    MoveStatus
	Board     Board
	Entry     HistoryMove
	LastMover string
}

type Clocks struct {
	White ClientClock `json:"white"`
	Black ClientClock `json:"black"`
}

// State is a consistent copy of a session.
type State struct {
	Board   Board     `json:"board"`
	History History   `json:"history"`
	Clocks  Clocks    `json:"clocks"`
	Players []Player  `json:"players"`
	Over    *GameOver `json:"over"`
}

type GameOptions struct {
	QueueSize      int
	BroadcastDepth int
	// Start replaces the standard starting position.
	Start *Board
	Now   func() time.Time
	// AfterMove runs on the actor right after a turn is committed. A
	// non-nil result ends the game before any other request is served.
	AfterMove func(b Board, m Move) *GameOver
}

type request struct {
	submission Submission
	reply      chan MoveResult

	end      *GameOver
	endReply chan error
}

// Game is a live session. One goroutine owns the board and the history;
// everybody else talks to it through requests and reads snapshots.
type Game struct {
	ID string

	requests  chan request
	done      chan struct{}
	broadcast *broadcaster
	now       func() time.Time
	afterMove func(Board, Move) *GameOver
	start     Board

	mu         sync.RWMutex
	board      ComputedBoard
	history    History
	over       *GameOver
	players    []Player
	whiteClock *Clock
	blackClock *Clock
}

// StartGame launches the session actor. It runs until End is called or
// ctx is cancelled.
func StartGame(ctx context.Context, id string, opts GameOptions) *Game {
	if opts.QueueSize < 1 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.BroadcastDepth < 1 {
		opts.BroadcastDepth = DefaultBroadcastDepth
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	board := NewComputedBoard()
	if opts.Start != nil {
		board = FromBoard(*opts.Start)
	}

	g := &Game{
		ID:         id,
		requests:   make(chan request, opts.QueueSize),
		done:       make(chan struct{}),
		broadcast:  newBroadcaster(opts.BroadcastDepth),
		now:        opts.Now,
		afterMove:  opts.AfterMove,
		start:      board.Board(),
		board:      board,
		history:    History{Moves: []HistoryMove{}},
		players:    []Player{},
		whiteClock: NewClock(opts.Now),
		blackClock: NewClock(opts.Now),
	}
	g.clockFor(board.NextMove()).Start()

	go g.run(ctx)
	return g
}

func (g *Game) run(ctx context.Context) {
	defer close(g.done)
	defer g.broadcast.close()

	for {
		select {
		case <-ctx.Done():
			log.Debugw("game stopped", "game", g.ID, "err", ctx.Err())
			g.stopClocks()
			return
		case req := <-g.requests:
			if req.end != nil {
				req.endReply <- g.finish(*req.end)
				return
			}
			res := g.process(req.submission)
			if over := g.checkOver(res); over != nil {
				g.finish(*over)
				req.reply <- res
				return
			}
			req.reply <- res
		}
	}
}

func (g *Game) checkOver(res MoveResult) *GameOver {
	if res.Status != MoveOK || g.afterMove == nil {
		return nil
	}
	return g.afterMove(res.Board, res.Entry.Move)
}

func (g *Game) process(sub Submission) MoveResult {
	turns := g.history.Len()
	if sub.TurnIndex != turns {
		last, _ := g.history.Last()
		log.Debugw("stale move", "game", g.ID, "submitter", sub.SubmitterID, "turn", sub.TurnIndex, "history", turns)
		return MoveResult{Status: MoveStale, LastMover: last.Name}
	}
	if last, ok := g.history.Last(); ok && last.SubmitterID == sub.SubmitterID {
		log.Debugw("already moved", "game", g.ID, "submitter", sub.SubmitterID)
		return MoveResult{Status: MoveAlreadyMoved}
	}

	m := sub.Move
	if m.Side != g.board.NextMove() || g.board.Phase() != PhasePiece ||
		!containsMove(g.board.AvailablePieceMoves(), m.Piece) {
		log.Debugw("wrong move", "game", g.ID, "submitter", sub.SubmitterID, "move", m.String())
		return MoveResult{Status: MoveWrong}
	}
	next := g.board
	next.ApplyPieceMove(m.Piece)
	if !m.Duck.IsValid() || !containsSquare(next.AvailableDuckSquares(), m.Duck) {
		log.Debugw("wrong duck", "game", g.ID, "submitter", sub.SubmitterID, "move", m.String())
		return MoveResult{Status: MoveWrong}
	}
	next.ApplyDuckMove(m.Duck)

	entry := HistoryMove{
		SubmitterID: sub.SubmitterID,
		Name:        sub.Name,
		Move:        m,
		Time:        g.now(),
	}

	g.mu.Lock()
	g.board = next
	g.history.Moves = append(g.history.Moves, entry)
	g.clockFor(m.Side).Stop()
	g.clockFor(m.Side.Other()).Start()
	board := next.Board()
	dropped := g.broadcast.publish(Event{Kind: EventMove, Turn: turns + 1, Entry: entry, Board: board})
	g.mu.Unlock()

	log.Debugw("move accepted", "game", g.ID, "submitter", sub.SubmitterID, "turn", turns+1, "move", m.String())
	if dropped > 0 {
		log.Warnf("game %s: %d slow subscribers lost an event", g.ID, dropped)
	}
	return MoveResult{Status: MoveOK, Board: board, Entry: entry}
}

func (g *Game) finish(over GameOver) error {
	g.mu.Lock()
	g.over = &over
	g.stopClocksLocked()
	ev := Event{Kind: EventGameOver, Turn: g.history.Len(), Board: g.board.Board(), Over: &over}
	g.broadcast.publish(ev)
	g.mu.Unlock()

	log.Infof("game %s over: %s wins (%s)", g.ID, over.Winner, over.Reason)
	return nil
}

func (g *Game) clockFor(s Side) *Clock {
	if s == White {
		return g.whiteClock
	}
	return g.blackClock
}

func (g *Game) stopClocks() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopClocksLocked()
}

func (g *Game) stopClocksLocked() {
	g.whiteClock.Stop()
	g.blackClock.Stop()
}

// Submit queues a submission and waits for the verdict. It fails with
// ErrGameClosed once the session has ended.
func (g *Game) Submit(ctx context.Context, sub Submission) (MoveResult, error) {
	// Buffered so the actor never blocks on a caller that gave up.
	reply := make(chan MoveResult, 1)
	select {
	case g.requests <- request{submission: sub, reply: reply}:
	case <-g.done:
		return MoveResult{}, ErrGameClosed
	case <-ctx.Done():
		return MoveResult{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, nil
	case <-g.done:
		select {
		case res := <-reply:
			return res, nil
		default:
			return MoveResult{}, ErrGameClosed
		}
	case <-ctx.Done():
		return MoveResult{}, ctx.Err()
	}
}

// End stops the session with a result. Subscribers receive a final
// EventGameOver and are then closed.
func (g *Game) End(ctx context.Context, winner Side, reason string) error {
	reply := make(chan error, 1)
	req := request{end: &GameOver{Winner: winner, Reason: reason}, endReply: reply}
	select {
	case g.requests <- req:
	case <-g.done:
		return ErrGameClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-g.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrGameClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the actor has exited.
func (g *Game) Done() <-chan struct{} {
	return g.done
}

// IsOver reports whether the session has a result or has stopped.
func (g *Game) IsOver() bool {
	select {
	case <-g.done:
		return true
	default:
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.over != nil
}

// AddPlayer records a participant. Joining twice is a no-op.
func (g *Game) AddPlayer(p Player) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, existing := range g.players {
		if existing.ID == p.ID {
			return
		}
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = g.now()
	}
	g.players = append(g.players, p)
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, p := range g.players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// Snapshot copies the session state under the read lock.
func (g *Game) Snapshot() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() State {
	players := make([]Player, len(g.players))
	copy(players, g.players)
	var over *GameOver
	if g.over != nil {
		o := *g.over
		over = &o
	}
	return State{
		Board:   g.board.Board(),
		History: g.history.Clone(),
		Clocks: Clocks{
			White: g.whiteClock.Client(),
			Black: g.blackClock.Client(),
		},
		Players: players,
		Over:    over,
	}
}

// Start returns the position the session began from.
func (g *Game) Start() Board {
	return g.start
}

// ComputedBoard returns a private copy of the current position.
func (g *Game) ComputedBoard() ComputedBoard {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.board
}

// Subscribe registers a listener. The state it reports through JoinedState
// is taken atomically with the registration, so no event is missed or
// repeated between the two.
func (g *Game) Subscribe() *Handle {
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, events := g.broadcast.subscribe()
	return &Handle{
		game:   g,
		id:     id,
		events: events,
		joined: g.snapshotLocked(),
	}
}

func (g *Game) Subscribers() int {
	return g.broadcast.size()
}

// Handle is one subscriber's view of a session.
type Handle struct {
	game   *Game
	id     uint64
	events <-chan Event
	joined State
	once   sync.Once
}

func (h *Handle) JoinedState() State {
	return h.joined
}

func (h *Handle) CurrentState() State {
	return h.game.Snapshot()
}

func (h *Handle) SubmitMove(ctx context.Context, sub Submission) (MoveResult, error) {
	return h.game.Submit(ctx, sub)
}

// NextBroadcast waits for the next event. It returns false once the
// session has ended or the handle was closed, or when ctx is done.
func (h *Handle) NextBroadcast(ctx context.Context) (Event, bool) {
	select {
	case ev, ok := <-h.events:
		return ev, ok
	case <-ctx.Done():
		return Event{}, false
	}
}

func (h *Handle) Close() {
	h.once.Do(func() {
		if h.id != 0 {
			h.game.broadcast.unsubscribe(h.id)
		}
	})
}
