package controller

import (
	"strings"

	"github.com/benbeisheim/duckchess-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Routes mounts the REST API under /api and the sockets under /ws.
func Routes(app *fiber.App, gc *GameController, wsc *WebSocketController, origins string) {
	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if origins != "" && origins != "*" {
		for _, o := range strings.Split(origins, ",") {
			wsConfig.Origins = append(wsConfig.Origins, strings.TrimSpace(o))
		}
	}

	// Set up WebSocket routes
	sockets := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	sockets.Get("/game/:gameId", websocket.New(wsc.HandleConnection, wsConfig))
	sockets.Get("/matchmaking", websocket.New(wsc.HandleMatchmaking, wsConfig))

	// Set up REST routes
	api := app.Group("/api", middleware.EnsurePlayerID())

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gc.JoinMatchmaking)
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Get("/lobby", gc.Lobby)
	gameRoutes.Post("/join/:gameId", gc.JoinGame)
	gameRoutes.Get("/:gameId", gc.GetGameState)
	gameRoutes.Get("/:gameId/moves", gc.GetMoves)
	gameRoutes.Get("/:gameId/pgn", gc.GetPGN)
	gameRoutes.Get("/:gameId/hint", gc.GetHint)
	gameRoutes.Post("/:gameId/resign", gc.Resign)
}
