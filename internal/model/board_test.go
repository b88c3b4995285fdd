package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseSquare(t *testing.T) {
	tests := []struct {
		in   string
		want Square
		err  bool
	}{
		{"a8", A8, false},
		{"H1", H1, false},
		{"e4", E4, false},
		{"D6", D6, false},
		{"i1", NoSquare, true},
		{"a9", NoSquare, true},
		{"a", NoSquare, true},
		{"", NoSquare, true},
	}
	for _, tt := range tests {
		got, err := ParseSquare(tt.in)
		if tt.err {
			if !errors.Is(err, ErrInvalidSquare) {
				t.Errorf("ParseSquare(%q) err = %v, want ErrInvalidSquare", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSquare(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestSquareAddStaysOnBoard(t *testing.T) {
	if _, ok := A8.Add(Up); ok {
		t.Errorf("a8 up left the board without failing")
	}
	if _, ok := H4.Add(Right); ok {
		t.Errorf("h4 right wrapped")
	}
	if sq, ok := A1.Add(UpRight); !ok || sq != B2 {
		t.Errorf("a1 up-right = %s, %v", sq, ok)
	}
	if sq, ok := E2.Add(Direction{0, -2}); !ok || sq != E4 {
		t.Errorf("e2 two up = %s, %v", sq, ok)
	}
}

func TestNeighborTableMatchesBruteForce(t *testing.T) {
	for sq := A8; sq < NoSquare; sq++ {
		for other := A8; other < NoSquare; other++ {
			dx := abs(sq.X() - other.X())
			dy := abs(sq.Y() - other.Y())
			want := sq != other && dx <= 1 && dy <= 1
			if got := HasNeighbor(sq, SquareBB(other)); got != want {
				t.Fatalf("HasNeighbor(%s, {%s}) = %v, want %v", sq, other, got, want)
			}
		}
	}
	if n := NeighborMask(A8).PopCount(); n != 3 {
		t.Errorf("corner has %d neighbors, want 3", n)
	}
	if n := NeighborMask(E4).PopCount(); n != 8 {
		t.Errorf("e4 has %d neighbors, want 8", n)
	}
}

func TestApplyMoveRoundTrip(t *testing.T) {
	cb := NewComputedBoard()
	m := Move{Piece: pawnMove(E2, E4), Duck: E5, Side: White}
	cb.ApplyMove(m)

	b := cb.Board()
	if !b.PieceAt(E2).IsEmpty() {
		t.Errorf("e2 not vacated")
	}
	if b.PieceAt(E4) != (Piece{Kind: Pawn, Side: White}) {
		t.Errorf("e4 = %+v", b.PieceAt(E4))
	}
	if !b.PieceAt(E5).IsDuck() || cb.DuckSquare() != E5 {
		t.Errorf("duck at %s, want e5", cb.DuckSquare())
	}
	if b.NextMove != Black || b.Phase != PhasePiece {
		t.Errorf("next = %s phase = %s", b.NextMove, b.Phase)
	}

	cb.ApplyMove(Move{Piece: NewPieceMove(Knight, G8, F6, NoKind, NoKind), Duck: C3, Side: Black})
	if !cb.PieceAt(E5).IsEmpty() {
		t.Errorf("old duck square not cleared")
	}
	ducks := 0
	for sq := A8; sq < NoSquare; sq++ {
		if cb.PieceAt(sq).IsDuck() {
			ducks++
		}
	}
	if ducks != 1 || cb.DuckSquare() != C3 {
		t.Errorf("got %d ducks, cached at %s", ducks, cb.DuckSquare())
	}
	if rebuilt := FromBoard(cb.Board()); rebuilt.DuckSquare() != C3 {
		t.Errorf("duck not found on rebuild")
	}
}

func TestComputedBoardIsAValue(t *testing.T) {
	cb := NewComputedBoard()
	clone := cb
	clone.ApplyPieceMove(pawnMove(E2, E4))
	if cb.Phase() != PhasePiece || cb.PieceAt(E4).Kind != NoKind {
		t.Errorf("mutating the copy changed the original")
	}
}

func TestComputedBoardAccessorsOnReturnedValue(t *testing.T) {
	b, err := ParseFEN("4k3/8/8/8/8/8/2*5/4R2K b - -")
	if err != nil {
		t.Fatal(err)
	}
	if sq := FromBoard(b).DuckSquare(); sq != C2 {
		t.Errorf("DuckSquare() = %s, want c2", sq)
	}
	if FromBoard(b).NextMove() != Black || FromBoard(b).Phase() != PhasePiece || FromBoard(b).MovedPiece() {
		t.Errorf("side and phase not read from the wrapped board")
	}
	if FromBoard(b).PieceAt(E1).Kind != Rook || !FromBoard(b).HasKing(White) {
		t.Errorf("pieces not read from the wrapped board")
	}
	if NewComputedBoard().Board() != StartBoard() {
		t.Errorf("Board() differs from the start position")
	}
}

func TestFENRoundTrip(t *testing.T) {
	b, err := ParseFEN(StartFEN)
	if err != nil {
		t.Fatal(err)
	}
	if b != StartBoard() {
		t.Fatalf("start FEN parsed to\n%s", b)
	}
	if got := b.FEN(); got != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -" {
		t.Errorf("FEN() = %q", got)
	}

	cb := NewComputedBoard()
	cb.ApplyMove(Move{Piece: pawnMove(E2, E4), Duck: A3, Side: White})
	want := "rnbqkbnr/pppppppp/8/8/4P3/*7/PPPP1PPP/RNBQKBNR b KQkq e3"
	after := cb.Board()
	if got := after.FEN(); got != want {
		t.Fatalf("FEN() = %q, want %q", got, want)
	}
	parsed, err := ParseFEN(want)
	if err != nil {
		t.Fatal(err)
	}
	if parsed != after {
		t.Errorf("parsed\n%s\nwant\n%s", parsed, after)
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"8/8/8/8/8/8/8 w - -",
		"9/8/8/8/8/8/8/8 w - -",
		"8/8/8/8/8/8/8/7X w - -",
		"8/8/8/8/8/8/8/8 x - -",
		"8/8/8/8/8/8/8/8 w Z -",
		"8/8/8/8/8/8/8/8 w - z9",
		"**6/8/8/8/8/8/8/8 w - -",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) err = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestMoveJSON(t *testing.T) {
	m := Move{Piece: pawnMove(E2, E4), Duck: A3, Side: White}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"piece":{"Piece":{"piece":"Pawn","from":"E2","to":"E4","capture":null,"promotion":null}},"duck":"A3","side":"White"}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}

	for _, pm := range []PieceMove{
		NewPieceMove(Pawn, E7, D8, Rook, Queen),
		NewEnPassant(E5, D6),
		NewCastle(E8, G8, H8, F8),
	} {
		in := Move{Piece: pm, Duck: H4, Side: Black}
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal %s: %v", pm, err)
		}
		var out Move
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if out != in {
			t.Errorf("round trip %s gave %s", in, out)
		}
	}

	var out PieceMove
	err = json.Unmarshal([]byte(`{"Piece":{"piece":"Pawn","from":"E2","to":"E4"},"EnPassant":{"from":"E5","to":"D6"}}`), &out)
	if !errors.Is(err, ErrInvalidMove) {
		t.Errorf("two tags: err = %v, want ErrInvalidMove", err)
	}
}

func TestBoardJSON(t *testing.T) {
	cb := NewComputedBoard()
	cb.ApplyPieceMove(pawnMove(E2, E4))
	b := cb.Board()

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	var wire struct {
		Board      []*Piece `json:"board"`
		EnPassant  *string  `json:"enPassant"`
		NextMove   string   `json:"nextMove"`
		MovedPiece bool     `json:"movedPiece"`
		CanCastle  struct {
			White [2]bool `json:"white"`
		} `json:"canCastle"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatal(err)
	}
	if len(wire.Board) != 64 || wire.Board[E2] != nil || wire.Board[E4] == nil {
		t.Errorf("board cells wrong: %s", data)
	}
	if wire.EnPassant == nil || *wire.EnPassant != "E4" {
		t.Errorf("enPassant = %v", wire.EnPassant)
	}
	if wire.NextMove != "White" || !wire.MovedPiece || wire.CanCastle.White != [2]bool{true, true} {
		t.Errorf("header wrong: %s", data)
	}

	var back Board
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != b {
		t.Errorf("round trip gave\n%s", back)
	}

	twoDucks := `{"board":[{"kind":"Duck","side":"White"},{"kind":"Duck","side":"Black"}],"canCastle":{"white":[false,false],"black":[false,false]},"enPassant":null,"nextMove":"White","movedPiece":false}`
	if err := json.Unmarshal([]byte(twoDucks), &back); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("two ducks: err = %v, want ErrInvalidBoard", err)
	}
}
