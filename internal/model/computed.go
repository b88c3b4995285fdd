package model

// ComputedBoard is a Board plus the cached duck square. It is a value:
// assigning it clones the position.
type ComputedBoard struct {
	inner Board
	duck  Square
}

// NewComputedBoard starts a game from the standard position.
func NewComputedBoard() ComputedBoard {
	return FromBoard(StartBoard())
}

// FromBoard wraps a valid board, locating the duck once.
func FromBoard(b Board) ComputedBoard {
	return ComputedBoard{inner: b, duck: b.findDuck()}
}

// Board returns a copy of the underlying board.
func (c ComputedBoard) Board() Board {
	return c.inner
}

func (c ComputedBoard) NextMove() Side {
	return c.inner.NextMove
}

func (c ComputedBoard) Phase() Phase {
	return c.inner.Phase
}

// MovedPiece reports whether the duck is expected next.
func (c ComputedBoard) MovedPiece() bool {
	return c.inner.MovedPiece()
}

// DuckSquare returns the duck's square, NoSquare before the first placement.
func (c ComputedBoard) DuckSquare() Square {
	return c.duck
}

func (c ComputedBoard) PieceAt(sq Square) Piece {
	return c.inner.cells[sq]
}

// AvailablePieceMoves lists every move of the side to move.
func (c *ComputedBoard) AvailablePieceMoves() []PieceMove {
	side := c.inner.NextMove
	list := make([]PieceMove, 0, 48)
	for sq, p := range c.inner.cells {
		if p.IsEmpty() || p.IsDuck() || p.Side != side {
			continue
		}
		list = c.inner.AvailablePieceMoves(p.Kind, Square(sq), list)
	}
	return list
}

// AvailableKindMoves lists the moves of every piece of one kind of the side to move.
func (c *ComputedBoard) AvailableKindMoves(kind PieceKind) []PieceMove {
	side := c.inner.NextMove
	var list []PieceMove
	for sq, p := range c.inner.cells {
		if p.Kind == kind && p.Side == side {
			list = c.inner.AvailablePieceMoves(kind, Square(sq), list)
		}
	}
	return list
}

func (c *ComputedBoard) AvailableDuckSquares() []Square {
	return c.inner.AvailableDuckSquares(make([]Square, 0, 64))
}

func (c *ComputedBoard) ReasonableDuckSquares() []Square {
	return c.inner.ReasonableDuckSquares(make([]Square, 0, 32))
}

func (c *ComputedBoard) ContactDuckSquares() []Square {
	return c.inner.ContactDuckSquares(make([]Square, 0, 48))
}

// ApplyPieceMove plays a generated piece move. Panics in duck phase.
func (c *ComputedBoard) ApplyPieceMove(m PieceMove) {
	c.inner.ApplyPieceMove(m)
}

// ApplyDuckMove places the duck on an empty square. Panics in piece phase.
func (c *ComputedBoard) ApplyDuckMove(sq Square) {
	c.inner.ApplyDuckMove(sq, c.duck)
	c.duck = sq
}

// ApplyMove plays a whole turn.
func (c *ComputedBoard) ApplyMove(m Move) {
	c.ApplyPieceMove(m.Piece)
	c.ApplyDuckMove(m.Duck)
}

// IsLegal reports whether m is a legal turn for this position.
func (c *ComputedBoard) IsLegal(m Move) bool {
	if c.inner.Phase != PhasePiece || m.Side != c.inner.NextMove || !m.Duck.IsValid() {
		return false
	}
	if !containsMove(c.AvailablePieceMoves(), m.Piece) {
		return false
	}
	next := *c
	next.ApplyPieceMove(m.Piece)
	return next.PieceAt(m.Duck).IsEmpty()
}

// HasKing reports whether side still has its king on the board.
func (c ComputedBoard) HasKing(side Side) bool {
	for _, p := range c.inner.cells {
		if p.Kind == King && p.Side == side {
			return true
		}
	}
	return false
}

func containsMove(list []PieceMove, m PieceMove) bool {
	for _, candidate := range list {
		if candidate == m {
			return true
		}
	}
	return false
}

func containsSquare(list []Square, sq Square) bool {
	for _, candidate := range list {
		if candidate == sq {
			return true
		}
	}
	return false
}
