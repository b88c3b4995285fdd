package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbeisheim/duckchess-backend/internal/engine"
	"github.com/benbeisheim/duckchess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	gm := service.NewGameManager(ctx, service.ManagerOptions{MatchInterval: 10 * time.Millisecond})
	gs := service.NewGameService(gm, nil, service.HintOptions{Depth: 1, MaxDepth: 2, Workers: 1, Scope: engine.ScopeOpponent})

	app := fiber.New()
	Routes(app, NewGameController(gs), NewWebSocketController(gs), "")
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("X-Player-ID", "player-1")
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func createGame(t *testing.T, app *fiber.App, body string) string {
	t.Helper()
	status, data := do(t, app, http.MethodPost, "/api/game/create", body)
	if status != fiber.StatusOK {
		t.Fatalf("create: %d %s", status, data)
	}
	var resp struct {
		GameID string `json:"game_id"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.GameID == "" {
		t.Fatalf("create response %s: %v", data, err)
	}
	return resp.GameID
}

func TestPlayerIDRequired(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/game/create", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGameRoutes(t *testing.T) {
	app := newTestApp(t)
	gameID := createGame(t, app, "")

	t.Run("State", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, "/api/game/"+gameID, "")
		if status != fiber.StatusOK {
			t.Fatalf("status %d: %s", status, data)
		}
		var state struct {
			History struct {
				Moves []json.RawMessage `json:"moves"`
			} `json:"history"`
		}
		if err := json.Unmarshal(data, &state); err != nil {
			t.Fatal(err)
		}
		if len(state.History.Moves) != 0 {
			t.Errorf("new game has %d moves", len(state.History.Moves))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if status, _ := do(t, app, http.MethodGet, "/api/game/missing", ""); status != fiber.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("Join", func(t *testing.T) {
		status, data := do(t, app, http.MethodPost, "/api/game/join/"+gameID, `{"name":"alice"}`)
		if status != fiber.StatusOK {
			t.Fatalf("status %d: %s", status, data)
		}
		_, data = do(t, app, http.MethodGet, "/api/game/"+gameID, "")
		if !strings.Contains(string(data), `"alice"`) {
			t.Errorf("state does not list the player: %s", data)
		}
	})

	t.Run("Moves", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, "/api/game/"+gameID+"/moves", "")
		if status != fiber.StatusOK {
			t.Fatalf("status %d: %s", status, data)
		}
		var resp struct {
			Turns []service.Turn `json:"turns"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Turns) != 20 {
			t.Errorf("got %d turns, want 20", len(resp.Turns))
		}
	})

	t.Run("Hint", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, "/api/game/"+gameID+"/hint?depth=1", "")
		if status != fiber.StatusOK {
			t.Fatalf("status %d: %s", status, data)
		}
		var hint service.Hint
		if err := json.Unmarshal(data, &hint); err != nil {
			t.Fatal(err)
		}
		if len(hint.Lines) != engine.DefaultK {
			t.Errorf("got %d lines", len(hint.Lines))
		}
		if status, _ := do(t, app, http.MethodGet, "/api/game/"+gameID+"/hint?depth=9", ""); status != fiber.StatusBadRequest {
			t.Errorf("deep hint status = %d, want 400", status)
		}
	})

	t.Run("PGN", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, "/api/game/"+gameID+"/pgn", "")
		if status != fiber.StatusOK || len(data) != 0 {
			t.Errorf("status %d, body %q", status, data)
		}
	})

	t.Run("Resign", func(t *testing.T) {
		status, data := do(t, app, http.MethodPost, "/api/game/"+gameID+"/resign", `{"side":"black"}`)
		if status != fiber.StatusOK {
			t.Fatalf("status %d: %s", status, data)
		}
		if !strings.Contains(string(data), `"winner":"White"`) {
			t.Errorf("resign response %s", data)
		}
		if status, _ := do(t, app, http.MethodPost, "/api/game/"+gameID+"/resign", ""); status != fiber.StatusConflict {
			t.Errorf("second resign status = %d, want 409", status)
		}
	})
}

func TestCreateFromFEN(t *testing.T) {
	app := newTestApp(t)

	gameID := createGame(t, app, `{"fen":"4k3/8/8/8/8/8/8/4R2K w - -"}`)
	_, data := do(t, app, http.MethodGet, "/api/game/"+gameID+"/pgn", "")
	if !strings.HasPrefix(string(data), "[FEN ") {
		t.Errorf("pgn = %q", data)
	}

	if status, _ := do(t, app, http.MethodPost, "/api/game/create", `{"fen":"nonsense"}`); status != fiber.StatusBadRequest {
		t.Errorf("bad fen status = %d, want 400", status)
	}
}

func TestLobbyAndMatchmaking(t *testing.T) {
	app := newTestApp(t)

	status, data := do(t, app, http.MethodGet, "/api/game/lobby", "")
	if status != fiber.StatusOK || !strings.Contains(string(data), "game_id") {
		t.Fatalf("lobby: %d %s", status, data)
	}

	if status, _ := do(t, app, http.MethodPost, "/api/game/matchmaking/join", ""); status != fiber.StatusOK {
		t.Errorf("join status = %d", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/game/matchmaking/join", ""); status != fiber.StatusConflict {
		t.Errorf("second join status = %d, want 409", status)
	}
}

func TestWebSocketNeedsUpgrade(t *testing.T) {
	app := newTestApp(t)
	if status, _ := do(t, app, http.MethodGet, "/ws/matchmaking", ""); status != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", status)
	}
}
