package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbeisheim/duckchess-backend/internal/config"
	"github.com/benbeisheim/duckchess-backend/internal/controller"
	"github.com/benbeisheim/duckchess-backend/internal/engine"
	"github.com/benbeisheim/duckchess-backend/internal/service"
	"github.com/benbeisheim/duckchess-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	log.SetLevel(cfg.LogLevel)

	scope, err := engine.ParseDuckScope(cfg.HintScope)
	if err != nil {
		return err
	}

	cache, err := storage.Open(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	gameManager := service.NewGameManager(ctx, service.ManagerOptions{
		QueueSize:      cfg.QueueSize,
		BroadcastDepth: cfg.BroadcastDepth,
	})
	gameService := service.NewGameService(gameManager, cache, service.HintOptions{
		Depth:    cfg.HintDepth,
		MaxDepth: cfg.HintMaxDepth,
		Workers:  cfg.HintWorkers,
		Scope:    scope,
	})

	app := fiber.New(fiber.Config{
		AppName:               "duckchess",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: cfg.AllowOrigins != "*",
	}))

	controller.Routes(app,
		controller.NewGameController(gameService),
		controller.NewWebSocketController(gameService),
		cfg.AllowOrigins,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s", cfg.Addr)
		return app.Listen(cfg.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
