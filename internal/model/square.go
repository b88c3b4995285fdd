package model

import (
	"fmt"
	"strings"
)

// Square is a cell index 0-63, rank-major from the top-left: A8=0, H8=7, A1=56, H1=63.
type Square uint8

const (
	A8 Square = iota
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A1
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	NoSquare Square = 64
)

// SquareAt builds a square from a file (0=a) and a row counted from the top (0=rank 8).
func SquareAt(x, y int) Square {
	return Square(y*8 + x)
}

// X returns the file, 0 for a.
func (sq Square) X() int {
	return int(sq) % 8
}

// Y returns the row counted from the top, 0 for rank 8.
func (sq Square) Y() int {
	return int(sq) / 8
}

// Rank returns the chess rank 1-8.
func (sq Square) Rank() int {
	return 8 - sq.Y()
}

func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// Add steps the square in the given direction. It reports false when the
// step would leave the board.
func (sq Square) Add(d Direction) (Square, bool) {
	x := sq.X() + d.DX
	y := sq.Y() + d.DY
	if x < 0 || x > 7 || y < 0 || y > 7 {
		return NoSquare, false
	}
	return SquareAt(x, y), true
}

// String returns lowercase algebraic notation ("e4").
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+sq.X(), sq.Rank())
}

// Name returns the identifier used on the wire ("E4").
func (sq Square) Name() string {
	return strings.ToUpper(sq.String())
}

// ParseSquare accepts "e4" or "E4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	file := int(s[0]|0x20) - 'a'
	rank := int(s[1]) - '0'
	if file < 0 || file > 7 || rank < 1 || rank > 8 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return SquareAt(file, 8-rank), nil
}

func (sq Square) MarshalText() ([]byte, error) {
	if !sq.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSquare, sq)
	}
	return []byte(sq.Name()), nil
}

func (sq *Square) UnmarshalText(text []byte) error {
	parsed, err := ParseSquare(string(text))
	if err != nil {
		return err
	}
	*sq = parsed
	return nil
}

// Direction is a step on the grid; DY grows toward rank 1.
type Direction struct {
	DX, DY int
}

var (
	Up        = Direction{0, -1}
	UpRight   = Direction{1, -1}
	Right     = Direction{1, 0}
	DownRight = Direction{1, 1}
	Down      = Direction{0, 1}
	DownLeft  = Direction{-1, 1}
	Left      = Direction{-1, 0}
	UpLeft    = Direction{-1, -1}
)

var (
	orthogonalDirs = []Direction{Up, Right, Down, Left}
	diagonalDirs   = []Direction{UpRight, DownRight, DownLeft, UpLeft}
	allDirs        = []Direction{Up, UpRight, Right, DownRight, Down, DownLeft, Left, UpLeft}
	knightDirs     = []Direction{
		{1, -2}, {2, -1}, {2, 1}, {1, 2},
		{-1, 2}, {-2, 1}, {-2, -1}, {-1, -2},
	}
)
