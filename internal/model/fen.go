package model

import (
	"fmt"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

const duckChar = '*'

var fenChars = map[PieceKind]byte{
	Rook: 'r', Knight: 'n', Bishop: 'b', King: 'k', Queen: 'q', Pawn: 'p',
}

func pieceChar(p Piece) byte {
	if p.IsEmpty() {
		return '.'
	}
	if p.IsDuck() {
		return duckChar
	}
	c := fenChars[p.Kind]
	if p.Side == White {
		c -= 'a' - 'A'
	}
	return c
}

func pieceFromChar(c byte) (Piece, bool) {
	if c == duckChar {
		return Piece{Kind: Duck}, true
	}
	side := Black
	lower := c
	if c >= 'A' && c <= 'Z' {
		side = White
		lower = c + ('a' - 'A')
	}
	for kind, ch := range fenChars {
		if ch == lower {
			return Piece{Kind: kind, Side: side}, true
		}
	}
	return Piece{}, false
}

// ParseFEN reads a position in piece phase. The duck is written as '*'.
// Move counters, when present, are ignored.
func ParseFEN(fen string) (Board, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return Board{}, fmt.Errorf("%w: expected at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}

	b := NewBoard()
	rows := strings.Split(fields[0], "/")
	if len(rows) != 8 {
		return Board{}, fmt.Errorf("%w: expected 8 rows, got %d", ErrInvalidFEN, len(rows))
	}
	ducks := 0
	for y, row := range rows {
		x := 0
		for i := 0; i < len(row); i++ {
			c := row[i]
			if c >= '1' && c <= '8' {
				x += int(c - '0')
				continue
			}
			p, ok := pieceFromChar(c)
			if !ok || x > 7 {
				return Board{}, fmt.Errorf("%w: bad row %q", ErrInvalidFEN, row)
			}
			if p.IsDuck() {
				ducks++
			}
			b.cells[SquareAt(x, y)] = p
			x++
		}
		if x != 8 {
			return Board{}, fmt.Errorf("%w: row %q has %d files", ErrInvalidFEN, row, x)
		}
	}
	if ducks > 1 {
		return Board{}, fmt.Errorf("%w: %d ducks", ErrInvalidFEN, ducks)
	}

	switch fields[1] {
	case "w":
		b.NextMove = White
	case "b":
		b.NextMove = Black
	default:
		return Board{}, fmt.Errorf("%w: side %q", ErrInvalidFEN, fields[1])
	}
	if duck := b.findDuck(); duck.IsValid() {
		b.cells[duck].Side = b.NextMove.Other()
	}

	b.CanCastle = CanCastle{}
	if fields[2] != "-" {
		for _, c := range fields[2] {
			switch c {
			case 'K':
				b.CanCastle.White.Short = true
			case 'Q':
				b.CanCastle.White.Long = true
			case 'k':
				b.CanCastle.Black.Short = true
			case 'q':
				b.CanCastle.Black.Long = true
			default:
				return Board{}, fmt.Errorf("%w: castling %q", ErrInvalidFEN, fields[2])
			}
		}
	}

	if fields[3] != "-" {
		target, err := ParseSquare(fields[3])
		if err != nil {
			return Board{}, fmt.Errorf("%w: en passant %q", ErrInvalidFEN, fields[3])
		}
		// The pushed pawn stands one step past the target, seen from the pusher.
		step := Down
		if b.NextMove == Black {
			step = Up
		}
		pawn, ok := target.Add(step)
		if !ok {
			return Board{}, fmt.Errorf("%w: en passant %q", ErrInvalidFEN, fields[3])
		}
		b.EnPassant = pawn
	}
	return b, nil
}

// FEN writes placement, side, castling rights and en passant target.
func (b Board) FEN() string {
	var sb strings.Builder
	for y := 0; y < 8; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for x := 0; x < 8; x++ {
			p := b.cells[SquareAt(x, y)]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pieceChar(p))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}

	if b.NextMove == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	castle := ""
	if b.CanCastle.White.Short {
		castle += "K"
	}
	if b.CanCastle.White.Long {
		castle += "Q"
	}
	if b.CanCastle.Black.Short {
		castle += "k"
	}
	if b.CanCastle.Black.Long {
		castle += "q"
	}
	if castle == "" {
		castle = "-"
	}
	sb.WriteString(castle)

	target := "-"
	if b.EnPassant.IsValid() {
		pusher := b.NextMove.Other()
		if b.Phase == PhaseDuck {
			pusher = b.NextMove
		}
		back := Down
		if pusher == Black {
			back = Up
		}
		if sq, ok := b.EnPassant.Add(back); ok {
			target = sq.String()
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(target)
	return sb.String()
}
