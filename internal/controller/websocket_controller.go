package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/duckchess-backend/internal/middleware"
	"github.com/benbeisheim/duckchess-backend/internal/model"
	"github.com/benbeisheim/duckchess-backend/internal/service"
	"github.com/benbeisheim/duckchess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

const moveTimeout = 5 * time.Second

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// conn serializes writes; the reader and the forwarder share it.
type conn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

func (c *conn) send(t ws.MessageType, payload any) error {
	msg, err := ws.NewMessage(t, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.WriteJSON(msg)
}

func (c *conn) closeWith(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
	c.c.Close()
}

func connPlayerID(c *websocket.Conn) string {
	id, _ := c.Locals(middleware.PlayerIDKey).(string)
	return id
}

// HandleConnection attaches a socket to a session. The client first gets
// its id, the board and the history, then every accepted move.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID := connPlayerID(c)
	out := &conn{c: c}

	handle, err := wsc.gameService.Subscribe(gameID)
	if err != nil {
		log.Warnf("subscribe %s to game %s: %v", playerID, gameID, err)
		out.send(ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()})
		out.closeWith(websocket.ClosePolicyViolation, err.Error())
		return
	}
	defer handle.Close()

	state := handle.JoinedState()
	if err := wsc.greet(out, playerID, state); err != nil {
		log.Warnf("greet %s: %v", playerID, err)
		return
	}
	if state.Over != nil {
		out.send(ws.MessageTypeGameOver, state.Over)
	}
	log.Debugw("socket attached", "game", gameID, "player", playerID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wsc.forward(ctx, out, handle)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugw("socket closed", "game", gameID, "player", playerID, "err", err)
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			out.send(ws.MessageTypeError, ws.ErrorPayload{Error: "malformed message"})
			continue
		}
		if err := wsc.handleMessage(gameID, playerID, handle, out, msg); err != nil {
			log.Debugw("message rejected", "game", gameID, "player", playerID, "type", msg.Type, "err", err)
			out.send(ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()})
		}
	}
}

func (wsc *WebSocketController) greet(out *conn, playerID string, state model.State) error {
	if err := out.send(ws.MessageTypeHi, ws.HiPayload{ID: playerID}); err != nil {
		return err
	}
	if err := out.send(ws.MessageTypeBoard, state.Board); err != nil {
		return err
	}
	return out.send(ws.MessageTypeHistory, state.History)
}

// forward relays session broadcasts until the session ends or ctx is done.
func (wsc *WebSocketController) forward(ctx context.Context, out *conn, handle *model.Handle) {
	for {
		ev, ok := handle.NextBroadcast(ctx)
		if !ok {
			if ctx.Err() == nil {
				out.closeWith(websocket.CloseNormalClosure, "game over")
			}
			return
		}

		var err error
		switch ev.Kind {
		case model.EventMove:
			err = out.send(ws.MessageTypeNewHistoryMove, ws.NewHistoryMovePayload{
				MoveNumber: ev.Turn,
				Entry:      ev.Entry,
				Board:      ev.Board,
			})
		case model.EventGameOver:
			err = out.send(ws.MessageTypeGameOver, ev.Over)
		}
		if err != nil {
			log.Debugw("forward failed", "err", err)
			return
		}
	}
}

func (wsc *WebSocketController) handleMessage(gameID, playerID string, handle *model.Handle, out *conn, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMakeMove:
		var payload ws.MakeMovePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("invalid move payload: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), moveTimeout)
		defer cancel()

		res, err := wsc.gameService.HandleMove(ctx, gameID, model.Submission{
			SubmitterID: playerID,
			Name:        payload.Name,
			TurnIndex:   payload.MoveNumber,
			Move:        payload.Move,
		})
		if err != nil {
			return err
		}
		switch res.Status {
		case model.MoveAlreadyMoved:
			return out.send(ws.MessageTypeAlreadyMoved, nil)
		case model.MoveStale:
			return out.send(ws.MessageTypeStale, ws.StalePayload{Name: res.LastMover})
		case model.MoveWrong:
			return out.send(ws.MessageTypeWrongMove, nil)
		}
		// Accepted moves reach this client through the broadcast.
		return nil

	case ws.MessageTypeResign:
		var payload ws.ResignPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				return fmt.Errorf("invalid resign payload: %w", err)
			}
		} else {
			payload.Side = handle.CurrentState().Board.NextMove
		}
		ctx, cancel := context.WithTimeout(context.Background(), moveTimeout)
		defer cancel()
		return wsc.gameService.Resign(ctx, gameID, payload.Side)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking waits on a queued player's socket until a partner is
// found, then sends the new game id and side.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID := connPlayerID(c)
	out := &conn{c: c}

	ch := make(chan string, 1)
	wsc.gameService.RegisterMatchmakingChannel(playerID, ch)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	if err := wsc.gameService.JoinMatchmaking(model.Player{ID: playerID, Name: playerID}); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		out.send(ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()})
		return
	}

	// The reader only notices the disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case data, ok := <-ch:
		if !ok {
			// Replaced by a newer socket of the same player.
			return
		}
		var event model.MatchFoundEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			log.Errorf("decode match event: %v", err)
			return
		}
		if err := out.send(ws.MessageTypeMatchFound, event); err != nil {
			log.Warnf("send match to %s: %v", playerID, err)
		}
	case <-gone:
		log.Debugw("matchmaking socket closed", "player", playerID)
		wsc.gameService.LeaveMatchmaking(playerID)
	}
}
