package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbeisheim/duckchess-backend/internal/model"
)

const (
	Infinity = 1 << 20

	DefaultK   = 5
	MaxDepth   = 6
	checkEvery = 1024
)

var (
	ErrDuckPhase = errors.New("search needs a position awaiting a piece move")
	ErrDepth     = errors.New("search depth out of range")
)

// DuckScope selects which empty squares the search tries for the duck.
type DuckScope uint8

const (
	// ScopeOpponent tries squares touching an opponent piece or the duck.
	ScopeOpponent DuckScope = iota
	// ScopeOccupied tries squares touching any piece.
	ScopeOccupied
)

func (s DuckScope) String() string {
	if s == ScopeOccupied {
		return "occupied"
	}
	return "opponent"
}

func ParseDuckScope(s string) (DuckScope, error) {
	switch s {
	case "", "opponent":
		return ScopeOpponent, nil
	case "occupied":
		return ScopeOccupied, nil
	}
	return ScopeOpponent, fmt.Errorf("unknown duck scope %q", s)
}

type Options struct {
	K     int
	Scope DuckScope
}

// Result holds the best root lines, best first. Evaluated counts the root
// (piece move, duck square) pairs that were scored; Nodes counts every
// position visited.
type Result struct {
	Lines     []Line `json:"lines"`
	Evaluated int    `json:"evaluated"`
	Nodes     int    `json:"nodes"`
}

type searcher struct {
	ctx   context.Context
	scope DuckScope
	nodes int
	err   error
}

// Search runs a negamax alpha-beta search of the given depth in turns. It
// works on its own copy of cb. Scores after the first line may be bounds
// rather than exact values, since the root window narrows as it goes.
func Search(ctx context.Context, cb model.ComputedBoard, depth int, opts Options) (Result, error) {
	if cb.Phase() != model.PhasePiece {
		return Result{}, ErrDuckPhase
	}
	if depth < 1 || depth > MaxDepth {
		return Result{}, fmt.Errorf("%w: %d", ErrDepth, depth)
	}
	if opts.K < 1 {
		opts.K = DefaultK
	}

	s := &searcher{ctx: ctx, scope: opts.Scope}
	top := newTopK(opts.K)
	mover := cb.NextMove()
	alpha, beta := -Infinity, Infinity
	evaluated := 0

	for _, pm := range cb.AvailablePieceMoves() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		next := cb
		next.ApplyPieceMove(pm)
		for _, duck := range s.duckSquares(&next) {
			child := next
			child.ApplyDuckMove(duck)
			s.nodes++

			var score int
			if depth == 1 {
				b := child.Board()
				score = Evaluate(&b, mover)
			} else {
				score = -s.negamax(child, depth-1, -beta, -alpha)
			}
			if s.err != nil {
				return Result{}, s.err
			}
			evaluated++
			top.push(Line{Score: score, Move: model.Move{Piece: pm, Duck: duck, Side: mover}})
			if score > alpha {
				alpha = score
			}
		}
	}

	return Result{Lines: top.lines, Evaluated: evaluated, Nodes: s.nodes}, nil
}

// negamax scores cb for the side to move.
func (s *searcher) negamax(cb model.ComputedBoard, depth, alpha, beta int) int {
	mover := cb.NextMove()
	moves := cb.AvailablePieceMoves()
	if len(moves) == 0 {
		b := cb.Board()
		return Evaluate(&b, mover)
	}

	best := -Infinity
	for _, pm := range moves {
		next := cb
		next.ApplyPieceMove(pm)
		for _, duck := range s.duckSquares(&next) {
			child := next
			child.ApplyDuckMove(duck)
			s.nodes++
			if s.nodes%checkEvery == 0 && s.err == nil {
				s.err = s.ctx.Err()
			}
			if s.err != nil {
				return best
			}

			var score int
			if depth == 1 {
				b := child.Board()
				score = Evaluate(&b, mover)
			} else {
				score = -s.negamax(child, depth-1, -beta, -alpha)
			}
			if score > best {
				best = score
			}
			if score > alpha {
				alpha = score
			}
			if alpha >= beta {
				return best
			}
		}
	}
	return best
}

// duckSquares applies the pruning scope and falls back to every empty
// square when the pruned set is empty.
func (s *searcher) duckSquares(cb *model.ComputedBoard) []model.Square {
	var squares []model.Square
	switch s.scope {
	case ScopeOccupied:
		squares = cb.ContactDuckSquares()
	default:
		squares = cb.ReasonableDuckSquares()
	}
	if len(squares) == 0 {
		squares = cb.AvailableDuckSquares()
	}
	return squares
}
