package pgn

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/benbeisheim/duckchess-backend/internal/model"
)

// TagFEN names the tag holding a non-standard starting position.
const TagFEN = "FEN"

// Game is a parsed PGN text: its tag pairs and its move tokens.
type Game struct {
	Tags  map[string]string
	Moves []Notation
}

// Start returns the position named by the FEN tag, or the standard one.
func (g Game) Start() (model.Board, error) {
	fen, ok := g.Tags[TagFEN]
	if !ok {
		return model.StartBoard(), nil
	}
	return model.ParseFEN(fen)
}

// Parse reads leading [Name "value"] lines and then the movetext.
func Parse(text string) (Game, error) {
	g := Game{Tags: map[string]string{}}
	var movetext strings.Builder

	sc := bufio.NewScanner(strings.NewReader(text))
	inTags := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if inTags && strings.HasPrefix(line, "[") {
			name, value, err := parseTag(line)
			if err != nil {
				return Game{}, err
			}
			g.Tags[name] = value
			continue
		}
		if line != "" {
			inTags = false
		}
		movetext.WriteString(line)
		movetext.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return Game{}, err
	}

	moves, err := ParseMoves(movetext.String())
	if err != nil {
		return Game{}, err
	}
	g.Moves = moves
	return g, nil
}

func parseTag(line string) (name, value string, err error) {
	if !strings.HasSuffix(line, "]") {
		return "", "", fmt.Errorf("%w: unterminated tag %q", ErrIncompleteMove, line)
	}
	body := strings.TrimSpace(line[1 : len(line)-1])
	name, quoted, ok := strings.Cut(body, " ")
	if !ok {
		return "", "", fmt.Errorf("%w: tag %q has no value", ErrIncompleteMove, line)
	}
	value, err = strconv.Unquote(strings.TrimSpace(quoted))
	if err != nil {
		return "", "", fmt.Errorf("%w: tag %q: %v", ErrIncompleteMove, line, err)
	}
	return name, value, nil
}

// FormatTag writes one tag pair line.
func FormatTag(name, value string) string {
	return fmt.Sprintf("[%s %s]", name, strconv.Quote(value))
}
