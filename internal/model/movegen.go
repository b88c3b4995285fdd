package model

// Promotion candidates, in the order the generator emits them.
var promotionKinds = []PieceKind{Queen, Rook, Bishop, Knight}

// AvailablePieceMoves appends the moves of the piece of the given kind
// standing on from. Castles are included for the king. Panics in duck phase.
func (b *Board) AvailablePieceMoves(kind PieceKind, from Square, list []PieceMove) []PieceMove {
	if b.Phase != PhasePiece {
		panic("model: piece moves requested while a duck move is expected")
	}
	switch kind {
	case Rook, Bishop, Queen:
		return b.slidingMoves(kind, from, 7, list)
	case King:
		list = b.slidingMoves(kind, from, 1, list)
		return b.castleMoves(from, list)
	case Knight:
		return b.knightMoves(from, list)
	case Pawn:
		return b.pawnMoves(from, list)
	}
	return list
}

// target reports whether a piece of side may land on sq and what it takes.
func (b *Board) target(sq Square, side Side) (ok bool, capture PieceKind) {
	p := b.cells[sq]
	if p.IsEmpty() {
		return true, NoKind
	}
	if p.capturableBy(side) {
		return true, p.Kind
	}
	return false, NoKind
}

func (b *Board) slidingMoves(kind PieceKind, from Square, reach int, list []PieceMove) []PieceMove {
	side := b.cells[from].Side
	for _, d := range kind.directions() {
		to := from
		for i := 0; i < reach; i++ {
			next, onBoard := to.Add(d)
			if !onBoard {
				break
			}
			to = next
			ok, capture := b.target(to, side)
			if !ok {
				break
			}
			list = append(list, NewPieceMove(kind, from, to, capture, NoKind))
			if capture != NoKind {
				break
			}
		}
	}
	return list
}

func (b *Board) knightMoves(from Square, list []PieceMove) []PieceMove {
	side := b.cells[from].Side
	for _, d := range knightDirs {
		to, onBoard := from.Add(d)
		if !onBoard {
			continue
		}
		if ok, capture := b.target(to, side); ok {
			list = append(list, NewPieceMove(Knight, from, to, capture, NoKind))
		}
	}
	return list
}

func (b *Board) castleMoves(king Square, list []PieceMove) []PieceMove {
	side := b.cells[king].Side
	y := homeRow(side)
	if king != SquareAt(4, y) {
		return list
	}
	rights := b.CanCastle.forSide(side)
	rook := Piece{Kind: Rook, Side: side}

	if rights.Long && b.cells[SquareAt(0, y)] == rook && b.rowEmpty(y, 1, 3) {
		list = append(list, NewCastle(king, SquareAt(2, y), SquareAt(0, y), SquareAt(3, y)))
	}
	if rights.Short && b.cells[SquareAt(7, y)] == rook && b.rowEmpty(y, 5, 6) {
		list = append(list, NewCastle(king, SquareAt(6, y), SquareAt(7, y), SquareAt(5, y)))
	}
	return list
}

func (b *Board) rowEmpty(y, fromX, toX int) bool {
	for x := fromX; x <= toX; x++ {
		if !b.cells[SquareAt(x, y)].IsEmpty() {
			return false
		}
	}
	return true
}

func (b *Board) pawnMoves(from Square, list []PieceMove) []PieceMove {
	side := b.cells[from].Side
	forward, startRow, lastRow := Up, 6, 0
	captures := []Direction{UpLeft, UpRight}
	if side == Black {
		forward, startRow, lastRow = Down, 1, 7
		captures = []Direction{DownLeft, DownRight}
	}

	add := func(to Square, capture PieceKind) {
		if to.Y() == lastRow {
			for _, promo := range promotionKinds {
				list = append(list, NewPieceMove(Pawn, from, to, capture, promo))
			}
			return
		}
		list = append(list, NewPieceMove(Pawn, from, to, capture, NoKind))
	}

	if one, ok := from.Add(forward); ok && b.cells[one].IsEmpty() {
		add(one, NoKind)
		if from.Y() == startRow {
			if two, ok := one.Add(forward); ok && b.cells[two].IsEmpty() {
				add(two, NoKind)
			}
		}
	}

	for _, d := range captures {
		to, ok := from.Add(d)
		if !ok {
			continue
		}
		if p := b.cells[to]; p.capturableBy(side) {
			add(to, p.Kind)
		}
	}

	// The en passant pawn sits beside us; we land behind it.
	if ep := b.EnPassant; ep.IsValid() && ep.Y() == from.Y() && abs(ep.X()-from.X()) == 1 {
		if b.cells[ep].capturableBy(side) {
			if to, ok := ep.Add(forward); ok && b.cells[to].IsEmpty() {
				list = append(list, NewEnPassant(from, to))
			}
		}
	}
	return list
}

// AvailableDuckSquares appends every empty square. Panics in piece phase.
func (b *Board) AvailableDuckSquares(list []Square) []Square {
	if b.Phase != PhaseDuck {
		panic("model: duck squares requested while a piece move is expected")
	}
	for sq, p := range b.cells {
		if p.IsEmpty() {
			list = append(list, Square(sq))
		}
	}
	return list
}

// ReasonableDuckSquares appends the empty squares touching an opponent
// piece or the duck. It prunes the search and is never used to validate.
func (b *Board) ReasonableDuckSquares(list []Square) []Square {
	if b.Phase != PhaseDuck {
		panic("model: duck squares requested while a piece move is expected")
	}
	opponent := b.NextMove.Other()
	var near Bitboard
	for sq, p := range b.cells {
		if p.IsDuck() || (!p.IsEmpty() && p.Side == opponent) {
			near = near.Set(Square(sq))
		}
	}
	return b.emptyNeighbors(near, list)
}

// ContactDuckSquares appends the empty squares touching any occupied
// square, own pieces included. A wider pruning frontier for the search.
func (b *Board) ContactDuckSquares(list []Square) []Square {
	if b.Phase != PhaseDuck {
		panic("model: duck squares requested while a piece move is expected")
	}
	return b.emptyNeighbors(b.Occupied(), list)
}

func (b *Board) emptyNeighbors(near Bitboard, list []Square) []Square {
	for sq, p := range b.cells {
		if p.IsEmpty() && HasNeighbor(Square(sq), near) {
			list = append(list, Square(sq))
		}
	}
	return list
}
