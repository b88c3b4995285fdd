package controller

import (
	"context"
	"errors"
	"time"

	"github.com/benbeisheim/duckchess-backend/internal/middleware"
	"github.com/benbeisheim/duckchess-backend/internal/model"
	"github.com/benbeisheim/duckchess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const requestTimeout = 10 * time.Second

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// errorStatus maps service errors onto HTTP codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrBadDepth), errors.Is(err, model.ErrInvalidSide),
		errors.Is(err, model.ErrInvalidFEN):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrGameOver), errors.Is(err, model.ErrAlreadyQueued):
		return fiber.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

type createRequest struct {
	FEN string `json:"fen"`
}

// CreateGame starts a session, optionally from a FEN position.
func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid create request",
			})
		}
	}

	var (
		gameID string
		err    error
	)
	if req.FEN != "" {
		gameID, err = gc.gameService.CreateGameFromFEN(req.FEN)
	} else {
		gameID, err = gc.gameService.CreateGame()
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) Lobby(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"game_id": gc.gameService.LobbyID(),
	})
}

type joinRequest struct {
	Name string `json:"name"`
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := middleware.PlayerID(c)

	var req joinRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid join request",
			})
		}
	}
	if req.Name == "" {
		req.Name = playerID
	}

	if err := gc.gameService.JoinGame(gameID, model.Player{ID: playerID, Name: req.Name}); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game joined",
		"game_id": gameID,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) GetMoves(c *fiber.Ctx) error {
	turns, err := gc.gameService.AvailableMoves(c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"turns": turns,
	})
}

func (gc *GameController) GetPGN(c *fiber.Ctx) error {
	text, err := gc.gameService.PGN(c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

func (gc *GameController) GetHint(c *fiber.Ctx) error {
	depth := c.QueryInt("depth", 0)
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	hint, err := gc.gameService.Hint(ctx, c.Params("gameId"), depth)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(hint)
}

type resignRequest struct {
	Side *model.Side `json:"side"`
}

// Resign ends the game for the given side, the side to move by default.
func (gc *GameController) Resign(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	var req resignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid resign request",
			})
		}
	}
	var side model.Side
	if req.Side != nil {
		side = *req.Side
	} else {
		state, err := gc.gameService.GetGameState(gameID)
		if err != nil {
			return fail(c, err)
		}
		side = state.Board.NextMove
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()
	if err := gc.gameService.Resign(ctx, gameID, side); err != nil {
		return fail(c, err)
	}
	log.Infof("player %s resigned %s in game %s", middleware.PlayerID(c), side, gameID)
	return c.JSON(fiber.Map{
		"message": "Game over",
		"winner":  side.Other(),
	})
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)

	if err := gc.gameService.JoinMatchmaking(model.Player{ID: playerID, Name: playerID}); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}
