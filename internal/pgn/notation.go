// Package pgn reads and writes the move notation used for duck chess
// games: every token is an algebraic piece move followed by the duck's
// square, as in "Nf3e5" or "O-O-Oc6".
package pgn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benbeisheim/duckchess-backend/internal/model"
)

var (
	ErrNumberExpected = errors.New("move number expected")
	ErrIncompleteMove = errors.New("incomplete move")
	ErrUnknownPiece   = errors.New("unknown piece")
	ErrInvalidSquare  = errors.New("invalid square")
	ErrNoMatch        = errors.New("no matching move")
)

// Notation is one parsed token before it is matched against a position.
// FromFile and FromRank hold the disambiguator, -1 when absent.
type Notation struct {
	Castle    bool
	Long      bool
	Piece     model.PieceKind
	FromFile  int
	FromRank  int
	To        model.Square
	Capture   bool
	Promotion model.PieceKind
	Duck      model.Square
}

func isResult(tok string) bool {
	return tok == "1-0" || tok == "0-1" || tok == "0-0"
}

// splitNumber cuts a leading "12." off tok.
func splitNumber(tok string) (rest string, ok bool) {
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(tok) || tok[i] != '.' {
		return "", false
	}
	return tok[i+1:], true
}

// ParseMoves reads "1. <white> <black> 2. ..." up to a result marker or the
// end of the text. A trailing white move without a black reply is allowed.
func ParseMoves(text string) ([]Notation, error) {
	fields := strings.Fields(text)
	moves := make([]Notation, 0, len(fields))

	for i := 0; i < len(fields); {
		if isResult(fields[i]) {
			break
		}
		rest, ok := splitNumber(fields[i])
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNumberExpected, fields[i])
		}
		i++

		for half := 0; half < 2; half++ {
			tok := rest
			if half > 0 || tok == "" {
				if i >= len(fields) {
					return moves, nil
				}
				if _, isNumber := splitNumber(fields[i]); isNumber && half > 0 {
					break
				}
				tok = fields[i]
				i++
			}
			rest = ""
			if isResult(tok) {
				return moves, nil
			}
			n, err := ParseToken(tok)
			if err != nil {
				return nil, err
			}
			moves = append(moves, n)
		}
	}
	return moves, nil
}

func parseSquare(file, rank byte) (model.Square, error) {
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return model.NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, string([]byte{file, rank}))
	}
	return model.SquareAt(int(file-'a'), int('8'-rank)), nil
}

// ParseToken reads a single move token.
func ParseToken(tok string) (Notation, error) {
	n := Notation{FromFile: -1, FromRank: -1}
	if len(tok) < 4 {
		return n, fmt.Errorf("%w: %q", ErrIncompleteMove, tok)
	}

	body := tok[:len(tok)-2]
	duck, err := parseSquare(tok[len(tok)-2], tok[len(tok)-1])
	if err != nil {
		return n, fmt.Errorf("%w in %q", err, tok)
	}
	n.Duck = duck

	switch body {
	case "O-O":
		n.Castle, n.Piece = true, model.King
		return n, nil
	case "O-O-O":
		n.Castle, n.Long, n.Piece = true, true, model.King
		return n, nil
	}

	n.Piece = model.Pawn
	if c := body[0]; c >= 'A' && c <= 'Z' {
		kind, ok := model.KindFromLetter(c)
		if !ok {
			return n, fmt.Errorf("%w: %q in %q", ErrUnknownPiece, string(c), tok)
		}
		n.Piece = kind
		body = body[1:]
	}

	if l := len(body); l >= 2 && body[l-2] == '=' {
		promo, ok := model.KindFromLetter(body[l-1])
		if !ok || promo == model.King || n.Piece != model.Pawn {
			return n, fmt.Errorf("%w: promotion %q in %q", ErrUnknownPiece, body[l-2:], tok)
		}
		n.Promotion = promo
		body = body[:l-2]
	}

	if len(body) < 2 {
		return n, fmt.Errorf("%w: %q", ErrIncompleteMove, tok)
	}
	to, err := parseSquare(body[len(body)-2], body[len(body)-1])
	if err != nil {
		return n, fmt.Errorf("%w in %q", err, tok)
	}
	n.To = to
	body = body[:len(body)-2]

	if strings.HasSuffix(body, "x") {
		n.Capture = true
		body = body[:len(body)-1]
	}

	switch {
	case body == "":
	case len(body) == 1 && body[0] >= 'a' && body[0] <= 'h':
		n.FromFile = int(body[0] - 'a')
	case len(body) == 1 && body[0] >= '1' && body[0] <= '8':
		n.FromRank = int(body[0] - '0')
	default:
		return n, fmt.Errorf("%w: %q", ErrIncompleteMove, tok)
	}
	return n, nil
}

// String writes the token back out.
func (n Notation) String() string {
	var sb strings.Builder
	switch {
	case n.Castle && n.Long:
		sb.WriteString("O-O-O")
	case n.Castle:
		sb.WriteString("O-O")
	default:
		sb.WriteString(n.Piece.Letter())
		if n.FromFile >= 0 {
			sb.WriteByte(byte('a' + n.FromFile))
		}
		if n.FromRank >= 0 {
			sb.WriteByte(byte('0' + n.FromRank))
		}
		if n.Capture {
			sb.WriteByte('x')
		}
		sb.WriteString(n.To.String())
		if n.Promotion != model.NoKind {
			sb.WriteByte('=')
			sb.WriteString(n.Promotion.Letter())
		}
	}
	sb.WriteString(n.Duck.String())
	return sb.String()
}
