package model

import "fmt"

type Side uint8

const (
	White Side = iota
	Black
)

func (s Side) Other() Side {
	return s ^ 1
}

func (s Side) String() string {
	if s == White {
		return "White"
	}
	return "Black"
}

func ParseSide(s string) (Side, error) {
	switch s {
	case "White", "white":
		return White, nil
	case "Black", "black":
		return Black, nil
	}
	return White, fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// PieceKind is the role of a piece. NoKind marks an empty cell.
type PieceKind uint8

const (
	NoKind PieceKind = iota
	Rook
	Knight
	Bishop
	King
	Queen
	Pawn
	Duck
)

func (k PieceKind) String() string {
	switch k {
	case Rook:
		return "Rook"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case King:
		return "King"
	case Queen:
		return "Queen"
	case Pawn:
		return "Pawn"
	case Duck:
		return "Duck"
	}
	return "None"
}

// Letter is the notation letter; pawns have none.
func (k PieceKind) Letter() string {
	switch k {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	}
	return ""
}

// KindFromLetter maps an uppercase notation letter to a kind.
func KindFromLetter(b byte) (PieceKind, bool) {
	switch b {
	case 'R':
		return Rook, true
	case 'N':
		return Knight, true
	case 'B':
		return Bishop, true
	case 'K':
		return King, true
	case 'Q':
		return Queen, true
	}
	return NoKind, false
}

func ParsePieceKind(s string) (PieceKind, error) {
	for k := Rook; k <= Duck; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return NoKind, fmt.Errorf("%w: %q", ErrInvalidPiece, s)
}

func (k PieceKind) MarshalText() ([]byte, error) {
	if k == NoKind || k > Duck {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPiece, k)
	}
	return []byte(k.String()), nil
}

func (k *PieceKind) UnmarshalText(text []byte) error {
	parsed, err := ParsePieceKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k PieceKind) directions() []Direction {
	switch k {
	case Rook:
		return orthogonalDirs
	case Bishop:
		return diagonalDirs
	case King, Queen:
		return allDirs
	}
	return nil
}

// Piece occupies one cell. The zero value is an empty cell.
type Piece struct {
	Kind PieceKind `json:"kind"`
	Side Side      `json:"side"`
}

func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

func (p Piece) IsDuck() bool {
	return p.Kind == Duck
}

// capturableBy reports whether a piece of the given side may take p.
func (p Piece) capturableBy(side Side) bool {
	return !p.IsEmpty() && !p.IsDuck() && p.Side != side
}
