package pgn

import (
	"fmt"
	"strings"

	"github.com/benbeisheim/duckchess-backend/internal/model"
)

// Resolve matches a notation against the position. Castles are built from
// the side to move; other moves are the first generated move of that kind
// that agrees with the destination, capture flag, disambiguator and
// promotion. Legality of the duck square is not checked here.
func Resolve(cb *model.ComputedBoard, n Notation) (model.Move, error) {
	if cb.Phase() != model.PhasePiece {
		return model.Move{}, fmt.Errorf("%w: %s while a duck move is expected", ErrNoMatch, n)
	}
	side := cb.NextMove()

	if n.Castle {
		y := 7
		if side == model.Black {
			y = 0
		}
		king, rook, kingTo, rookTo := model.SquareAt(4, y), model.SquareAt(7, y), model.SquareAt(6, y), model.SquareAt(5, y)
		if n.Long {
			rook, kingTo, rookTo = model.SquareAt(0, y), model.SquareAt(2, y), model.SquareAt(3, y)
		}
		return model.Move{Piece: model.NewCastle(king, kingTo, rook, rookTo), Duck: n.Duck, Side: side}, nil
	}

	for _, m := range cb.AvailableKindMoves(n.Piece) {
		if matches(m, n) {
			return model.Move{Piece: m, Duck: n.Duck, Side: side}, nil
		}
	}
	return model.Move{}, fmt.Errorf("%w: %s for %s", ErrNoMatch, n, side)
}

func matches(m model.PieceMove, n Notation) bool {
	if m.Kind == model.CastleMove || m.To != n.To || m.IsCapture() != n.Capture {
		return false
	}
	if n.FromFile >= 0 && m.From.X() != n.FromFile {
		return false
	}
	if n.FromRank >= 0 && m.From.Rank() != n.FromRank {
		return false
	}
	return n.Promotion == model.NoKind || m.Promotion == n.Promotion
}

// Format writes m as a token for the position it is played from, adding a
// file or rank only when another piece of the same kind could also arrive.
// Pawn captures always name their file.
func Format(cb *model.ComputedBoard, m model.Move) string {
	pm := m.Piece
	n := Notation{FromFile: -1, FromRank: -1, Piece: pm.Piece, Duck: m.Duck}
	if pm.Kind == model.CastleMove {
		n.Castle, n.Long = true, pm.IsLongCastle()
		return n.String()
	}
	n.To, n.Capture, n.Promotion = pm.To, pm.IsCapture(), pm.Promotion

	if pm.Piece == model.Pawn && n.Capture {
		n.FromFile = pm.From.X()
		return n.String()
	}

	sameFile, sameRank, others := false, false, false
	for _, other := range cb.AvailableKindMoves(pm.Piece) {
		if other.From == pm.From || !matches(other, n) {
			continue
		}
		others = true
		sameFile = sameFile || other.From.X() == pm.From.X()
		sameRank = sameRank || other.From.Rank() == pm.From.Rank()
	}
	switch {
	case !others:
	case !sameFile:
		n.FromFile = pm.From.X()
	case !sameRank:
		n.FromRank = pm.From.Rank()
	default:
		// A single character cannot separate three or more candidates.
		n.FromFile = pm.From.X()
	}
	return n.String()
}

// Replay plays notations from the starting position, rejecting any turn
// that is not legal.
func Replay(ns []Notation) (model.ComputedBoard, []model.Move, error) {
	return ReplayFrom(model.StartBoard(), ns)
}

// ReplayFrom is Replay for an arbitrary piece-phase position.
func ReplayFrom(start model.Board, ns []Notation) (model.ComputedBoard, []model.Move, error) {
	cb := model.FromBoard(start)
	moves := make([]model.Move, 0, len(ns))
	for i, n := range ns {
		m, err := Resolve(&cb, n)
		if err != nil {
			return cb, moves, fmt.Errorf("turn %d: %w", i+1, err)
		}
		if !cb.IsLegal(m) {
			return cb, moves, fmt.Errorf("turn %d: %w: %s is not legal", i+1, ErrNoMatch, n)
		}
		cb.ApplyMove(m)
		moves = append(moves, m)
	}
	return cb, moves, nil
}

// FormatGame writes moves played from the starting position, one numbered
// pair per line.
func FormatGame(moves []model.Move) (string, error) {
	return FormatGameFrom(model.StartBoard(), moves)
}

// FormatGameFrom writes moves played from start. A start other than the
// standard position is recorded in a FEN tag.
func FormatGameFrom(start model.Board, moves []model.Move) (string, error) {
	cb := model.FromBoard(start)
	var sb strings.Builder
	if fen := start.FEN(); fen != model.StartBoard().FEN() {
		sb.WriteString(FormatTag(TagFEN, fen))
		sb.WriteString("\n\n")
	}
	for i, m := range moves {
		if !cb.IsLegal(m) {
			return "", fmt.Errorf("turn %d: %w: %s is not legal", i+1, ErrNoMatch, m)
		}
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		sb.WriteByte(' ')
		sb.WriteString(Format(&cb, m))
		cb.ApplyMove(m)
	}
	return sb.String(), nil
}
