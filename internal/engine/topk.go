package engine

import "github.com/benbeisheim/duckchess-backend/internal/model"

// Line is one scored turn at the root of a search.
type Line struct {
	Score int        `json:"score"`
	Move  model.Move `json:"move"`
}

// topK keeps the k best lines seen so far, best first. On equal scores the
// line pushed first stays ahead.
type topK struct {
	k     int
	lines []Line
}

func newTopK(k int) *topK {
	return &topK{k: k, lines: make([]Line, 0, k+1)}
}

func (t *topK) push(l Line) {
	i := len(t.lines)
	for i > 0 && t.lines[i-1].Score < l.Score {
		i--
	}
	if i >= t.k {
		return
	}
	t.lines = append(t.lines, Line{})
	copy(t.lines[i+1:], t.lines[i:])
	t.lines[i] = l
	if len(t.lines) > t.k {
		t.lines = t.lines[:t.k]
	}
}
