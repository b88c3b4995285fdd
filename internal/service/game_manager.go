// service/game_manager.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benbeisheim/duckchess-backend/internal/model"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

type ManagerOptions struct {
	QueueSize      int
	BroadcastDepth int
	MatchInterval  time.Duration
}

type GameManager struct {
	ctx              context.Context
	opts             ManagerOptions
	games            map[string]*model.Game
	lobbyID          string
	queue            *model.Queue
	matchingChannels map[string]chan string
	mu               sync.RWMutex
}

// NewGameManager starts the shared lobby game and the matchmaking loop.
// Both stop when ctx is cancelled.
func NewGameManager(ctx context.Context, opts ManagerOptions) *GameManager {
	if opts.MatchInterval <= 0 {
		opts.MatchInterval = time.Second
	}
	gm := &GameManager{
		ctx:              ctx,
		opts:             opts,
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
	}

	gm.lobbyID = uuid.New().String()
	gm.games[gm.lobbyID] = gm.startGame(gm.lobbyID, nil)
	log.Infof("lobby game %s started", gm.lobbyID)

	// Start matchmaking processor
	go gm.processMatchmaking()

	return gm
}

func (gm *GameManager) startGame(gameID string, start *model.Board) *model.Game {
	return model.StartGame(gm.ctx, gameID, model.GameOptions{
		QueueSize:      gm.opts.QueueSize,
		BroadcastDepth: gm.opts.BroadcastDepth,
		Start:          start,
		AfterMove:      kingCaptured,
	})
}

// kingCaptured ends the game once the mover has taken the other king.
func kingCaptured(b model.Board, m model.Move) *model.GameOver {
	if model.FromBoard(b).HasKing(m.Side.Other()) {
		return nil
	}
	return &model.GameOver{Winner: m.Side, Reason: ReasonKingCaptured}
}

func (gm *GameManager) LobbyID() string {
	return gm.lobbyID
}

// CreateGame starts a session from start, or from the standard position
// when start is nil.
func (gm *GameManager) CreateGame(gameID string, start *model.Board) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}

	gm.games[gameID] = gm.startGame(gameID, start)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (gm *GameManager) GameCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

func (gm *GameManager) AddPlayerToGame(gameID string, player model.Player) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	log.Debugw("player joined", "game", gameID, "player", player.ID)
	game.AddPlayer(player)
	return nil
}

func (gm *GameManager) JoinMatchmaking(player model.Player) error {
	if err := gm.queue.AddPlayer(player); err != nil {
		log.Debugw("matchmaking join rejected", "player", player.ID, "err", err)
		return err
	}
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) {
	gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	// A reconnecting player replaces its previous channel.
	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets ch if it is still the registered
// one. The channel is closed by whoever removes it from the map.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, ok := gm.matchingChannels[playerID]; ok && existing == ch {
		delete(gm.matchingChannels, playerID)
		close(ch)
	}
}

func (gm *GameManager) processMatchmaking() {
	ticker := time.NewTicker(gm.opts.MatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			gm.matchPending()
		}
	}
}

// matchPending pairs every two waiting players into a fresh game.
func (gm *GameManager) matchPending() {
	for {
		player1, player2, ok := gm.queue.NextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		game := gm.startGame(gameID, nil)
		game.AddPlayer(player1)
		game.AddPlayer(player2)

		gm.mu.Lock()
		gm.games[gameID] = game
		gm.notifyMatchLocked(player1.ID, model.MatchFoundEvent{GameID: gameID, Side: model.White})
		gm.notifyMatchLocked(player2.ID, model.MatchFoundEvent{GameID: gameID, Side: model.Black})
		gm.mu.Unlock()

		log.Infof("matched %s and %s into game %s", player1.ID, player2.ID, gameID)
	}
}

func (gm *GameManager) notifyMatchLocked(playerID string, event model.MatchFoundEvent) {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		log.Warnf("player %s matched without a listener", playerID)
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("encode match event: %v", err)
		return
	}
	select {
	case ch <- string(data):
	default:
		log.Warnf("failed to send match event to player %s", playerID)
	}
	delete(gm.matchingChannels, playerID)
	close(ch)
}
