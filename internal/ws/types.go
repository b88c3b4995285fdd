package ws

import (
	"encoding/json"

	"github.com/benbeisheim/duckchess-backend/internal/model"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	// Client to server
	MessageTypeMakeMove MessageType = "makeMove"
	MessageTypeResign   MessageType = "resign"

	// Server to client
	MessageTypeHi             MessageType = "hi"
	MessageTypeBoard          MessageType = "board"
	MessageTypeHistory        MessageType = "history"
	MessageTypeNewHistoryMove MessageType = "newHistoryMove"
	MessageTypeAlreadyMoved   MessageType = "alreadyMoved"
	MessageTypeStale          MessageType = "stale"
	MessageTypeWrongMove      MessageType = "wrongMove"
	MessageTypeGameOver       MessageType = "gameOver"
	MessageTypeMatchFound     MessageType = "matchFound"
	MessageTypeError          MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage encodes payload; a nil payload is left out.
func NewMessage(t MessageType, payload any) (Message, error) {
	msg := Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = data
	return msg, nil
}

type HiPayload struct {
	ID string `json:"id"`
}

// MakeMovePayload carries a turn. MoveNumber is the history length the
// client saw.
type MakeMovePayload struct {
	Name       string     `json:"name"`
	MoveNumber int        `json:"moveNumber"`
	Move       model.Move `json:"move"`
}

type ResignPayload struct {
	Side model.Side `json:"side"`
}

type NewHistoryMovePayload struct {
	MoveNumber int               `json:"moveNumber"`
	Entry      model.HistoryMove `json:"entry"`
	Board      model.Board       `json:"board"`
}

type StalePayload struct {
	Name string `json:"name"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
