package engine

import "github.com/benbeisheim/duckchess-backend/internal/model"

// Material values. The king is worth enough that losing it dominates
// everything else on the board.
const (
	PawnValue   = 1
	KnightValue = 3
	BishopValue = 3
	RookValue   = 5
	QueenValue  = 9
	KingValue   = 99
)

var pieceValues = [...]int{
	model.NoKind: 0,
	model.Rook:   RookValue,
	model.Knight: KnightValue,
	model.Bishop: BishopValue,
	model.King:   KingValue,
	model.Queen:  QueenValue,
	model.Pawn:   PawnValue,
	model.Duck:   0,
}

func PieceValue(k model.PieceKind) int {
	if int(k) >= len(pieceValues) {
		return 0
	}
	return pieceValues[k]
}

// Evaluate returns the material balance seen from side.
func Evaluate(b *model.Board, side model.Side) int {
	score := 0
	for sq := model.A8; sq < model.NoSquare; sq++ {
		p := b.PieceAt(sq)
		if p.IsEmpty() || p.IsDuck() {
			continue
		}
		if p.Side == side {
			score += PieceValue(p.Kind)
		} else {
			score -= PieceValue(p.Kind)
		}
	}
	return score
}
