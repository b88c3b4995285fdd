package model

import "math/bits"

// Bitboard is an occupancy set, bit i standing for Square(i).
type Bitboard uint64

func SquareBB(sq Square) Bitboard {
	return 1 << sq
}

func (b Bitboard) Set(sq Square) Bitboard {
	return b | (1 << sq)
}

func (b Bitboard) Clear(sq Square) Bitboard {
	return b &^ (1 << sq)
}

func (b Bitboard) IsSet(sq Square) bool {
	return b&(1<<sq) != 0
}

func (b Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// PopLSB removes and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	if *b == 0 {
		return NoSquare
	}
	sq := Square(bits.TrailingZeros64(uint64(*b)))
	*b &= *b - 1
	return sq
}

// Squares returns the set squares in index order.
func (b Bitboard) Squares() []Square {
	squares := make([]Square, 0, b.PopCount())
	for b != 0 {
		squares = append(squares, b.PopLSB())
	}
	return squares
}
