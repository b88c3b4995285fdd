package model

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func startTestGame(t *testing.T, opts GameOptions) *Game {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return StartGame(ctx, "test", opts)
}

func submit(t *testing.T, g *Game, id string, turn int, m Move) MoveResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := g.Submit(ctx, Submission{SubmitterID: id, Name: id, TurnIndex: turn, Move: m})
	if err != nil {
		t.Fatalf("submit %s: %v", m, err)
	}
	return res
}

var (
	whiteE4 = Move{Piece: NewPieceMove(Pawn, E2, E4, NoKind, NoKind), Duck: A3, Side: White}
	blackE5 = Move{Piece: NewPieceMove(Pawn, E7, E5, NoKind, NoKind), Duck: H6, Side: Black}
	whiteD4 = Move{Piece: NewPieceMove(Pawn, D2, D4, NoKind, NoKind), Duck: B3, Side: White}
)

func TestSubmitStale(t *testing.T) {
	g := startTestGame(t, GameOptions{})

	res := submit(t, g, "alice", 1, whiteE4)
	if res.Status != MoveStale || res.LastMover != "" {
		t.Fatalf("got %v (%q), want stale with no last mover", res.Status, res.LastMover)
	}

	submit(t, g, "alice", 0, whiteE4)
	res = submit(t, g, "bob", 0, blackE5)
	if res.Status != MoveStale || res.LastMover != "alice" {
		t.Fatalf("got %v (%q), want stale naming alice", res.Status, res.LastMover)
	}

	illegal := []Move{
		{Piece: whiteD4.Piece, Duck: whiteD4.Duck, Side: White},
		{Piece: blackE5.Piece, Duck: E7, Side: Black},
		{Piece: NewPieceMove(Pawn, E7, E4, NoKind, NoKind), Duck: H6, Side: Black},
	}
	for _, m := range illegal {
		for _, turn := range []int{0, 5} {
			if res := submit(t, g, "bob", turn, m); res.Status != MoveStale {
				t.Errorf("%s at turn %d: got %v, want stale", m, turn, res.Status)
			}
		}
	}
	if n := g.Snapshot().History.Len(); n != 1 {
		t.Errorf("history has %d entries after rejected moves", n)
	}
}

func TestSubmitAlreadyMoved(t *testing.T) {
	g := startTestGame(t, GameOptions{})

	res := submit(t, g, "alice", 0, whiteE4)
	if res.Status != MoveOK {
		t.Fatalf("first move: %v", res.Status)
	}
	if res.Entry.SubmitterID != "alice" || res.Entry.Move != whiteE4 {
		t.Errorf("entry = %+v", res.Entry)
	}
	if res.Board.NextMove != Black || res.Board.PieceAt(E4).Kind != Pawn {
		t.Errorf("board after move:\n%s", res.Board)
	}

	if res := submit(t, g, "alice", 1, blackE5); res.Status != MoveAlreadyMoved {
		t.Fatalf("same submitter again: %v", res.Status)
	}
	if res := submit(t, g, "bob", 1, blackE5); res.Status != MoveOK {
		t.Fatalf("other submitter: %v", res.Status)
	}
}

func TestSubmitWrongMove(t *testing.T) {
	g := startTestGame(t, GameOptions{})

	tests := []struct {
		name string
		move Move
	}{
		{"wrong side", blackE5},
		{"illegal piece move", Move{Piece: NewPieceMove(Pawn, E2, E5, NoKind, NoKind), Duck: A3, Side: White}},
		{"duck on occupied square", Move{Piece: whiteE4.Piece, Duck: D2, Side: White}},
		{"duck on destination", Move{Piece: whiteE4.Piece, Duck: E4, Side: White}},
		{"duck off board", Move{Piece: whiteE4.Piece, Duck: NoSquare, Side: White}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := submit(t, g, "alice", 0, tt.move); res.Status != MoveWrong {
				t.Errorf("got %v, want wrong move", res.Status)
			}
		})
	}

	state := g.Snapshot()
	if state.History.Len() != 0 || state.Board != StartBoard() {
		t.Errorf("rejected moves changed the session")
	}
	if res := submit(t, g, "alice", 0, Move{Piece: whiteE4.Piece, Duck: E2, Side: White}); res.Status != MoveOK {
		t.Errorf("duck on vacated square: %v", res.Status)
	}
}

func TestConcurrentSubmissionsSerialize(t *testing.T) {
	g := startTestGame(t, GameOptions{})

	const n = 16
	var wg sync.WaitGroup
	results := make([]MoveStatus, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			id := string(rune('a' + i))
			res, err := g.Submit(ctx, Submission{SubmitterID: id, Name: id, Move: whiteE4})
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			results[i] = res.Status
		}(i)
	}
	wg.Wait()

	ok, stale := 0, 0
	for _, s := range results {
		switch s {
		case MoveOK:
			ok++
		case MoveStale:
			stale++
		}
	}
	if ok != 1 || stale != n-1 {
		t.Errorf("got %d ok and %d stale, want 1 and %d", ok, stale, n-1)
	}
	if g.Snapshot().History.Len() != 1 {
		t.Errorf("history length %d, want 1", g.Snapshot().History.Len())
	}
}

func TestBroadcastAndEnd(t *testing.T) {
	g := startTestGame(t, GameOptions{})
	h := g.Subscribe()
	defer h.Close()

	if joined := h.JoinedState(); joined.History.Len() != 0 {
		t.Fatalf("joined state has %d moves", joined.History.Len())
	}

	submit(t, g, "alice", 0, whiteE4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, ok := h.NextBroadcast(ctx)
	if !ok || ev.Kind != EventMove || ev.Turn != 1 || ev.Entry.Move != whiteE4 {
		t.Fatalf("event = %+v, %v", ev, ok)
	}

	if err := g.End(ctx, Black, "resign"); err != nil {
		t.Fatalf("end: %v", err)
	}
	ev, ok = h.NextBroadcast(ctx)
	if !ok || ev.Kind != EventGameOver || ev.Over == nil || ev.Over.Winner != Black {
		t.Fatalf("final event = %+v, %v", ev, ok)
	}
	if _, ok := h.NextBroadcast(ctx); ok {
		t.Fatalf("subscription still open after the game ended")
	}

	if _, err := g.Submit(ctx, Submission{SubmitterID: "bob", TurnIndex: 1, Move: blackE5}); !errors.Is(err, ErrGameClosed) {
		t.Errorf("submit after end: %v, want ErrGameClosed", err)
	}
	if err := g.End(ctx, White, "again"); !errors.Is(err, ErrGameClosed) {
		t.Errorf("second end: %v, want ErrGameClosed", err)
	}
	if over := g.Snapshot().Over; over == nil || over.Reason != "resign" {
		t.Errorf("snapshot over = %+v", over)
	}
	if !g.IsOver() {
		t.Errorf("IsOver = false")
	}

	late := g.Subscribe()
	if _, ok := late.NextBroadcast(ctx); ok {
		t.Errorf("late subscriber got an event")
	}
}

func TestAfterMoveEndsInSameStep(t *testing.T) {
	start, err := ParseFEN("4k3/8/8/8/8/8/8/4R2K w - -")
	if err != nil {
		t.Fatal(err)
	}
	var calls int
	g := startTestGame(t, GameOptions{
		Start: &start,
		AfterMove: func(b Board, m Move) *GameOver {
			calls++
			if FromBoard(b).HasKing(m.Side.Other()) {
				return nil
			}
			return &GameOver{Winner: m.Side, Reason: "king taken"}
		},
	})
	h := g.Subscribe()
	defer h.Close()

	capture := Move{Piece: NewPieceMove(Rook, E1, E8, King, NoKind), Duck: A1, Side: White}
	late := Move{Piece: NewPieceMove(King, E8, D8, NoKind, NoKind), Duck: A2, Side: Black}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// Both requests are queued before the actor answers the first one.
	first := make(chan MoveResult, 1)
	go func() {
		res, _ := g.Submit(ctx, Submission{SubmitterID: "alice", Name: "alice", Move: capture})
		first <- res
	}()
	for len(g.requests) == 0 && g.Snapshot().History.Len() == 0 {
		time.Sleep(time.Millisecond)
	}
	_, lateErr := g.Submit(ctx, Submission{SubmitterID: "bob", Name: "bob", TurnIndex: 1, Move: late})

	if res := <-first; res.Status != MoveOK {
		t.Fatalf("capture: %v", res.Status)
	}
	if !errors.Is(lateErr, ErrGameClosed) {
		t.Errorf("move after the capture: %v, want ErrGameClosed", lateErr)
	}
	<-g.Done()

	state := g.Snapshot()
	if state.Over == nil || state.Over.Winner != White || state.Over.Reason != "king taken" {
		t.Fatalf("over = %+v", state.Over)
	}
	if state.History.Len() != 1 || calls != 1 {
		t.Errorf("history has %d moves after %d hook calls", state.History.Len(), calls)
	}

	ev, ok := h.NextBroadcast(ctx)
	if !ok || ev.Kind != EventMove {
		t.Fatalf("first event = %+v, %v", ev, ok)
	}
	ev, ok = h.NextBroadcast(ctx)
	if !ok || ev.Kind != EventGameOver || ev.Over.Winner != White {
		t.Fatalf("second event = %+v, %v", ev, ok)
	}
}

func TestAfterMoveOnlySeesCommittedTurns(t *testing.T) {
	var seen []Move
	g := startTestGame(t, GameOptions{
		AfterMove: func(b Board, m Move) *GameOver {
			seen = append(seen, m)
			return nil
		},
	})

	submit(t, g, "alice", 1, whiteE4)
	submit(t, g, "alice", 0, blackE5)
	submit(t, g, "alice", 0, whiteE4)
	submit(t, g, "alice", 1, blackE5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := g.Submit(ctx, Submission{SubmitterID: "bob", TurnIndex: 1, Move: blackE5}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != whiteE4 || seen[1] != blackE5 {
		t.Errorf("hook saw %v", seen)
	}
	if g.IsOver() {
		t.Errorf("game ended without a result from the hook")
	}
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	g := startTestGame(t, GameOptions{BroadcastDepth: 2})
	h := g.Subscribe()

	submit(t, g, "alice", 0, whiteE4)
	submit(t, g, "bob", 1, blackE5)
	submit(t, g, "alice", 2, whiteD4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.End(ctx, White, "resign"); err != nil {
		t.Fatal(err)
	}

	ev, ok := h.NextBroadcast(ctx)
	if !ok || ev.Kind != EventMove || ev.Turn != 3 {
		t.Fatalf("first buffered event = %+v, want turn 3", ev)
	}
	ev, ok = h.NextBroadcast(ctx)
	if !ok || ev.Kind != EventGameOver {
		t.Fatalf("second buffered event = %+v, want game over", ev)
	}
	if _, ok := h.NextBroadcast(ctx); ok {
		t.Errorf("expected closed subscription")
	}
}

func TestHandleClose(t *testing.T) {
	g := startTestGame(t, GameOptions{})
	h := g.Subscribe()
	if g.Subscribers() != 1 {
		t.Fatalf("subscribers = %d", g.Subscribers())
	}
	h.Close()
	h.Close()
	if g.Subscribers() != 0 {
		t.Errorf("subscribers after close = %d", g.Subscribers())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, ok := h.NextBroadcast(ctx); ok {
		t.Errorf("closed handle delivered an event")
	}
}

func TestCancelledContextStopsGame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := StartGame(ctx, "cancel", GameOptions{})
	cancel()

	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("actor did not stop")
	}
	if _, err := g.Submit(context.Background(), Submission{Move: whiteE4}); !errors.Is(err, ErrGameClosed) {
		t.Errorf("submit after stop: %v", err)
	}
}

func TestPlayers(t *testing.T) {
	g := startTestGame(t, GameOptions{})
	g.AddPlayer(Player{ID: "alice", Name: "Alice"})
	g.AddPlayer(Player{ID: "alice", Name: "Alice again"})
	g.AddPlayer(Player{ID: "bob"})

	players := g.Snapshot().Players
	if len(players) != 2 || players[0].Name != "Alice" {
		t.Errorf("players = %+v", players)
	}
	if !g.IsPlayerInGame("bob") || g.IsPlayerInGame("carol") {
		t.Errorf("membership check wrong")
	}
}
