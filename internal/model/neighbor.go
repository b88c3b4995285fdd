package model

// neighborMasks[sq] holds the up to 8 squares touching sq.
var neighborMasks [64]Bitboard

func init() {
	for sq := A8; sq < NoSquare; sq++ {
		var mask Bitboard
		for _, d := range allDirs {
			if n, ok := sq.Add(d); ok {
				mask = mask.Set(n)
			}
		}
		neighborMasks[sq] = mask
	}
}

// NeighborMask returns the squares adjacent to sq.
func NeighborMask(sq Square) Bitboard {
	return neighborMasks[sq]
}

// HasNeighbor reports whether any square adjacent to sq is set in b.
func HasNeighbor(sq Square, b Bitboard) bool {
	return neighborMasks[sq]&b != 0
}
