package model

import (
	"encoding/json"
	"fmt"
)

type PieceMoveKind uint8

const (
	PlainMove PieceMoveKind = iota
	EnPassantMove
	CastleMove
)

// PieceMove is the first half of a turn. For castles From/To are the king
// squares and RookFrom/RookTo the rook squares; other kinds leave the rook
// squares at NoSquare. Build values with the constructors so that moves
// compare equal with ==.
type PieceMove struct {
	Kind      PieceMoveKind
	Piece     PieceKind
	From      Square
	To        Square
	Capture   PieceKind
	Promotion PieceKind
	RookFrom  Square
	RookTo    Square
}

func NewPieceMove(piece PieceKind, from, to Square, capture, promotion PieceKind) PieceMove {
	return PieceMove{
		Kind:      PlainMove,
		Piece:     piece,
		From:      from,
		To:        to,
		Capture:   capture,
		Promotion: promotion,
		RookFrom:  NoSquare,
		RookTo:    NoSquare,
	}
}

func NewEnPassant(from, to Square) PieceMove {
	return PieceMove{
		Kind:     EnPassantMove,
		Piece:    Pawn,
		From:     from,
		To:       to,
		Capture:  Pawn,
		RookFrom: NoSquare,
		RookTo:   NoSquare,
	}
}

func NewCastle(fromKing, toKing, fromRook, toRook Square) PieceMove {
	return PieceMove{
		Kind:     CastleMove,
		Piece:    King,
		From:     fromKing,
		To:       toKing,
		RookFrom: fromRook,
		RookTo:   toRook,
	}
}

func (m PieceMove) IsCapture() bool {
	return m.Capture != NoKind
}

// IsLongCastle is only meaningful for castles.
func (m PieceMove) IsLongCastle() bool {
	return m.RookFrom.X() == 0
}

func (m PieceMove) String() string {
	switch m.Kind {
	case EnPassantMove:
		return fmt.Sprintf("%s%s e.p.", m.From, m.To)
	case CastleMove:
		if m.IsLongCastle() {
			return "O-O-O"
		}
		return "O-O"
	}
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += "=" + m.Promotion.Letter()
	}
	return s
}

// Move bundles both halves of one turn.
type Move struct {
	Piece PieceMove `json:"piece"`
	Duck  Square    `json:"duck"`
	Side  Side      `json:"side"`
}

func (m Move) String() string {
	return fmt.Sprintf("%s %s@%s", m.Side, m.Piece, m.Duck)
}

type plainMoveJSON struct {
	Piece     PieceKind  `json:"piece"`
	From      Square     `json:"from"`
	To        Square     `json:"to"`
	Capture   *PieceKind `json:"capture"`
	Promotion *PieceKind `json:"promotion"`
}

type enPassantJSON struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

type castleJSON struct {
	FromKing Square `json:"fromKing"`
	ToKing   Square `json:"toKing"`
	FromRook Square `json:"fromRook"`
	ToRook   Square `json:"toRook"`
}

// pieceMoveJSON is the externally tagged form: exactly one field is set.
type pieceMoveJSON struct {
	Piece     *plainMoveJSON `json:"Piece,omitempty"`
	EnPassant *enPassantJSON `json:"EnPassant,omitempty"`
	Castle    *castleJSON    `json:"Castle,omitempty"`
}

func optionalKind(k PieceKind) *PieceKind {
	if k == NoKind {
		return nil
	}
	return &k
}

func (m PieceMove) MarshalJSON() ([]byte, error) {
	var out pieceMoveJSON
	switch m.Kind {
	case PlainMove:
		out.Piece = &plainMoveJSON{
			Piece:     m.Piece,
			From:      m.From,
			To:        m.To,
			Capture:   optionalKind(m.Capture),
			Promotion: optionalKind(m.Promotion),
		}
	case EnPassantMove:
		out.EnPassant = &enPassantJSON{From: m.From, To: m.To}
	case CastleMove:
		out.Castle = &castleJSON{FromKing: m.From, ToKing: m.To, FromRook: m.RookFrom, ToRook: m.RookTo}
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidMove, m.Kind)
	}
	return json.Marshal(out)
}

func (m *PieceMove) UnmarshalJSON(data []byte) error {
	var in pieceMoveJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.Piece != nil && in.EnPassant == nil && in.Castle == nil:
		var capture, promotion PieceKind
		if in.Piece.Capture != nil {
			capture = *in.Piece.Capture
		}
		if in.Piece.Promotion != nil {
			promotion = *in.Piece.Promotion
		}
		*m = NewPieceMove(in.Piece.Piece, in.Piece.From, in.Piece.To, capture, promotion)
	case in.EnPassant != nil && in.Piece == nil && in.Castle == nil:
		*m = NewEnPassant(in.EnPassant.From, in.EnPassant.To)
	case in.Castle != nil && in.Piece == nil && in.EnPassant == nil:
		*m = NewCastle(in.Castle.FromKing, in.Castle.ToKing, in.Castle.FromRook, in.Castle.ToRook)
	default:
		return fmt.Errorf("%w: expected exactly one of Piece, EnPassant, Castle", ErrInvalidMove)
	}
	return nil
}
