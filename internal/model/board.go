package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Phase tells which half of the turn is expected next.
type Phase uint8

const (
	PhasePiece Phase = iota
	PhaseDuck
)

func (p Phase) String() string {
	if p == PhaseDuck {
		return "duck"
	}
	return "piece"
}

// CastleRights for one side. Rights are only ever revoked.
type CastleRights struct {
	Long  bool
	Short bool
}

func (r CastleRights) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]bool{r.Long, r.Short})
}

func (r *CastleRights) UnmarshalJSON(data []byte) error {
	var pair [2]bool
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	r.Long, r.Short = pair[0], pair[1]
	return nil
}

type CanCastle struct {
	White CastleRights `json:"white"`
	Black CastleRights `json:"black"`
}

func (c *CanCastle) forSide(s Side) *CastleRights {
	if s == White {
		return &c.White
	}
	return &c.Black
}

// Board is the full game state. Copying the value copies the position.
type Board struct {
	cells     [64]Piece
	CanCastle CanCastle
	// EnPassant is the square of a pawn that double-pushed on the last
	// piece move, NoSquare otherwise.
	EnPassant Square
	NextMove  Side
	Phase     Phase
}

var startRow = [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns an empty board with White to move and all rights held.
func NewBoard() Board {
	return Board{
		CanCastle: CanCastle{
			White: CastleRights{Long: true, Short: true},
			Black: CastleRights{Long: true, Short: true},
		},
		EnPassant: NoSquare,
		NextMove:  White,
		Phase:     PhasePiece,
	}
}

// StartBoard returns the standard starting position.
func StartBoard() Board {
	b := NewBoard()
	for x := 0; x < 8; x++ {
		b.cells[SquareAt(x, 0)] = Piece{Kind: startRow[x], Side: Black}
		b.cells[SquareAt(x, 1)] = Piece{Kind: Pawn, Side: Black}
		b.cells[SquareAt(x, 6)] = Piece{Kind: Pawn, Side: White}
		b.cells[SquareAt(x, 7)] = Piece{Kind: startRow[x], Side: White}
	}
	return b
}

func (b *Board) PieceAt(sq Square) Piece {
	return b.cells[sq]
}

// SetPiece places p on sq, replacing any occupant. Used to build positions.
func (b *Board) SetPiece(sq Square, p Piece) {
	b.cells[sq] = p
}

// MovedPiece reports whether a duck placement is expected next.
func (b *Board) MovedPiece() bool {
	return b.Phase == PhaseDuck
}

// Occupied returns the set of all non-empty squares.
func (b *Board) Occupied() Bitboard {
	var bb Bitboard
	for sq, p := range b.cells {
		if !p.IsEmpty() {
			bb = bb.Set(Square(sq))
		}
	}
	return bb
}

// homeRow is the back row of a side, counted from the top.
func homeRow(s Side) int {
	if s == White {
		return 7
	}
	return 0
}

func (b *Board) revokeCorner(sq Square) {
	for _, side := range []Side{White, Black} {
		y := homeRow(side)
		rights := b.CanCastle.forSide(side)
		switch sq {
		case SquareAt(0, y):
			rights.Long = false
		case SquareAt(7, y):
			rights.Short = false
		}
	}
}

// ApplyPieceMove plays the piece half of a turn. The move must come from
// the generator for this position; calling it in duck phase panics.
func (b *Board) ApplyPieceMove(m PieceMove) {
	if b.Phase != PhasePiece {
		panic("model: piece move applied while a duck move is expected")
	}
	side := b.NextMove
	rights := b.CanCastle.forSide(side)
	enPassant := NoSquare

	switch m.Kind {
	case PlainMove:
		switch m.Piece {
		case King:
			rights.Long = false
			rights.Short = false
		case Rook:
			b.revokeCorner(m.From)
		case Pawn:
			if m.From.X() == m.To.X() && abs(m.From.Y()-m.To.Y()) == 2 {
				enPassant = m.To
			}
		}
		if b.cells[m.To].Kind == Rook {
			b.revokeCorner(m.To)
		}
		moved := b.cells[m.From]
		if m.Promotion != NoKind {
			moved = Piece{Kind: m.Promotion, Side: side}
		}
		b.cells[m.From] = Piece{}
		b.cells[m.To] = moved
	case EnPassantMove:
		b.cells[b.EnPassant] = Piece{}
		b.cells[m.To] = b.cells[m.From]
		b.cells[m.From] = Piece{}
	case CastleMove:
		king := b.cells[m.From]
		rook := b.cells[m.RookFrom]
		b.cells[m.From] = Piece{}
		b.cells[m.RookFrom] = Piece{}
		b.cells[m.To] = king
		b.cells[m.RookTo] = rook
		rights.Long = false
		rights.Short = false
	}

	b.EnPassant = enPassant
	b.Phase = PhaseDuck
}

// ApplyDuckMove places the duck, removing it from prev when prev is a
// square, and hands the turn to the other side. Panics in piece phase.
func (b *Board) ApplyDuckMove(sq, prev Square) {
	if b.Phase != PhaseDuck {
		panic("model: duck move applied while a piece move is expected")
	}
	if prev.IsValid() {
		b.cells[prev] = Piece{}
	}
	b.cells[sq] = Piece{Kind: Duck, Side: b.NextMove}
	b.Phase = PhasePiece
	b.NextMove = b.NextMove.Other()
}

// ApplyMove plays both halves of m.
func (b *Board) ApplyMove(m Move) {
	prev := b.findDuck()
	b.ApplyPieceMove(m.Piece)
	b.ApplyDuckMove(m.Duck, prev)
}

func (b *Board) findDuck() Square {
	for sq, p := range b.cells {
		if p.IsDuck() {
			return Square(sq)
		}
	}
	return NoSquare
}

// String draws the board from White's side, '*' for the duck.
func (b Board) String() string {
	var sb strings.Builder
	for y := 0; y < 8; y++ {
		fmt.Fprintf(&sb, "%d ", 8-y)
		for x := 0; x < 8; x++ {
			sb.WriteByte(pieceChar(b.cells[SquareAt(x, y)]))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

type boardJSON struct {
	Board      [64]*Piece `json:"board"`
	CanCastle  CanCastle  `json:"canCastle"`
	EnPassant  *Square    `json:"enPassant"`
	NextMove   Side       `json:"nextMove"`
	MovedPiece bool       `json:"movedPiece"`
}

func (b Board) MarshalJSON() ([]byte, error) {
	out := boardJSON{
		CanCastle:  b.CanCastle,
		NextMove:   b.NextMove,
		MovedPiece: b.Phase == PhaseDuck,
	}
	for sq := range b.cells {
		if p := b.cells[sq]; !p.IsEmpty() {
			out.Board[sq] = &p
		}
	}
	if b.EnPassant.IsValid() {
		ep := b.EnPassant
		out.EnPassant = &ep
	}
	return json.Marshal(out)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var in boardJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	next := NewBoard()
	ducks := 0
	for sq, p := range in.Board {
		if p == nil {
			continue
		}
		if p.Kind == NoKind {
			return fmt.Errorf("%w: empty piece record at %s", ErrInvalidBoard, Square(sq))
		}
		if p.IsDuck() {
			ducks++
		}
		next.cells[sq] = *p
	}
	if ducks > 1 {
		return fmt.Errorf("%w: %d ducks", ErrInvalidBoard, ducks)
	}
	next.CanCastle = in.CanCastle
	if in.EnPassant != nil {
		next.EnPassant = *in.EnPassant
	}
	next.NextMove = in.NextMove
	if in.MovedPiece {
		next.Phase = PhaseDuck
	}
	*b = next
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
