package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbeisheim/duckchess-backend/internal/engine"
	"github.com/benbeisheim/duckchess-backend/internal/model"
	"github.com/benbeisheim/duckchess-backend/internal/pgn"
	"github.com/benbeisheim/duckchess-backend/internal/storage"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const ReasonKingCaptured = "king captured"

var ErrBadDepth = errors.New("hint depth out of range")

type HintOptions struct {
	Depth    int
	MaxDepth int
	Workers  int
	Scope    engine.DuckScope
}

type GameService struct {
	gameManager *GameManager
	cache       *storage.HintCache
	hints       HintOptions
	sem         *semaphore.Weighted
}

// NewGameService wires the registry to the search. cache may be nil.
func NewGameService(gameManager *GameManager, cache *storage.HintCache, hints HintOptions) *GameService {
	if hints.Workers < 1 {
		hints.Workers = 1
	}
	if hints.Depth < 1 {
		hints.Depth = 1
	}
	if hints.MaxDepth < hints.Depth {
		hints.MaxDepth = hints.Depth
	}
	return &GameService{
		gameManager: gameManager,
		cache:       cache,
		hints:       hints,
		sem:         semaphore.NewWeighted(int64(hints.Workers)),
	}
}

func (gs *GameService) CreateGame() (string, error) {
	return gs.createGame(nil)
}

// CreateGameFromFEN starts a session at the given position, piece phase.
func (gs *GameService) CreateGameFromFEN(fen string) (string, error) {
	board, err := model.ParseFEN(fen)
	if err != nil {
		return "", err
	}
	return gs.createGame(&board)
}

func (gs *GameService) createGame(start *model.Board) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID, start); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) LobbyID() string {
	return gs.gameManager.LobbyID()
}

func (gs *GameService) JoinGame(gameID string, player model.Player) error {
	return gs.gameManager.AddPlayerToGame(gameID, player)
}

func (gs *GameService) JoinMatchmaking(player model.Player) error {
	return gs.gameManager.JoinMatchmaking(player)
}

func (gs *GameService) LeaveMatchmaking(playerID string) {
	gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) GetGameState(gameID string) (model.State, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.State{}, err
	}
	return game.Snapshot(), nil
}

func (gs *GameService) Subscribe(gameID string) (*model.Handle, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.Subscribe(), nil
}

// HandleMove submits a turn. A turn that takes the last king of the other
// side ends the game inside the same actor step.
func (gs *GameService) HandleMove(ctx context.Context, gameID string, sub model.Submission) (model.MoveResult, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.MoveResult{}, err
	}
	return game.Submit(ctx, sub)
}

// Resign ends the game in favor of the other side.
func (gs *GameService) Resign(ctx context.Context, gameID string, side model.Side) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if game.IsOver() {
		return model.ErrGameOver
	}
	if err := game.End(ctx, side.Other(), fmt.Sprintf("%s resigned", side)); err != nil {
		if errors.Is(err, model.ErrGameClosed) {
			return model.ErrGameOver
		}
		return err
	}
	return nil
}

// Turn is one legal piece move with every square the duck may then take.
type Turn struct {
	Piece       model.PieceMove `json:"piece"`
	Notation    string          `json:"notation"`
	DuckSquares []model.Square  `json:"duckSquares"`
}

// AvailableMoves lists the legal turns of the side to move.
func (gs *GameService) AvailableMoves(gameID string) ([]Turn, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	cb := game.ComputedBoard()
	moves := cb.AvailablePieceMoves()
	turns := make([]Turn, 0, len(moves))
	for _, pm := range moves {
		next := cb
		next.ApplyPieceMove(pm)
		turns = append(turns, Turn{
			Piece:       pm,
			Notation:    pgn.Format(&cb, model.Move{Piece: pm, Side: cb.NextMove()}),
			DuckSquares: next.AvailableDuckSquares(),
		})
	}
	return turns, nil
}

// PGN writes the history of a game.
func (gs *GameService) PGN(gameID string) (string, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return pgn.FormatGameFrom(game.Start(), game.Snapshot().History.PlainMoves())
}

type HintLine struct {
	Score    int        `json:"score"`
	Move     model.Move `json:"move"`
	Notation string     `json:"notation"`
}

type Hint struct {
	Depth     int        `json:"depth"`
	Lines     []HintLine `json:"lines"`
	Evaluated int        `json:"evaluated"`
	Nodes     int        `json:"nodes"`
	Cached    bool       `json:"cached"`
}

// Hint searches the current position of a game. Depth zero picks the
// configured default. Results are cached per position.
func (gs *GameService) Hint(ctx context.Context, gameID string, depth int) (Hint, error) {
	if depth == 0 {
		depth = gs.hints.Depth
	}
	if depth < 1 || depth > gs.hints.MaxDepth {
		return Hint{}, fmt.Errorf("%w: %d not in 1..%d", ErrBadDepth, depth, gs.hints.MaxDepth)
	}
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return Hint{}, err
	}
	cb := game.ComputedBoard()
	board := cb.Board()
	key := storage.HintKey(board.FEN(), board.MovedPiece(), depth, gs.hints.Scope.String())

	if gs.cache != nil {
		var cached Hint
		found, err := gs.cache.Get(key, &cached)
		if err != nil {
			log.Warnf("hint cache read: %v", err)
		} else if found {
			cached.Cached = true
			return cached, nil
		}
	}

	if err := gs.sem.Acquire(ctx, 1); err != nil {
		return Hint{}, err
	}
	defer gs.sem.Release(1)

	res, err := engine.Search(ctx, cb, depth, engine.Options{Scope: gs.hints.Scope})
	if err != nil {
		return Hint{}, err
	}

	hint := Hint{
		Depth:     depth,
		Lines:     make([]HintLine, 0, len(res.Lines)),
		Evaluated: res.Evaluated,
		Nodes:     res.Nodes,
	}
	for _, line := range res.Lines {
		hint.Lines = append(hint.Lines, HintLine{
			Score:    line.Score,
			Move:     line.Move,
			Notation: pgn.Format(&cb, line.Move),
		})
	}
	log.Debugw("hint computed", "game", gameID, "depth", depth, "nodes", res.Nodes)

	if gs.cache != nil {
		if err := gs.cache.Put(key, hint); err != nil {
			log.Warnf("hint cache write: %v", err)
		}
	}
	return hint, nil
}
