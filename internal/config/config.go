package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Config holds the server settings. Every flag falls back to a DUCK_*
// environment variable.
type Config struct {
	Addr           string
	AllowOrigins   string
	LogLevel       log.Level
	QueueSize      int
	BroadcastDepth int
	HintDepth      int
	HintMaxDepth   int
	HintWorkers    int
	HintScope      string
	CacheDir       string
	CacheTTL       time.Duration
}

var ErrInvalidConfig = errors.New("invalid config")

// Load parses args (without the program name) on top of the environment.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("duckchess", flag.ContinueOnError)

	addr := fs.String("addr", getenv("DUCK_ADDR", ":3000"), "listen address")
	origins := fs.String("origins", getenv("DUCK_ORIGINS", "http://localhost:5173"), "comma-separated CORS origins")
	level := fs.String("log-level", getenv("DUCK_LOG_LEVEL", "info"), "trace, debug, info, warn or error")
	queue := fs.Int("queue", getenvInt("DUCK_QUEUE", 5), "pending move requests per game")
	depth := fs.Int("broadcast-depth", getenvInt("DUCK_BROADCAST_DEPTH", 5), "buffered events per subscriber")
	hintDepth := fs.Int("hint-depth", getenvInt("DUCK_HINT_DEPTH", 2), "default hint search depth")
	hintMax := fs.Int("hint-max-depth", getenvInt("DUCK_HINT_MAX_DEPTH", 3), "largest hint depth a client may ask for")
	workers := fs.Int("hint-workers", getenvInt("DUCK_HINT_WORKERS", 2), "concurrent hint searches")
	scope := fs.String("hint-scope", getenv("DUCK_HINT_SCOPE", "opponent"), "duck squares tried by hints: opponent or occupied")
	cacheDir := fs.String("cache-dir", getenv("DUCK_CACHE_DIR", ""), "hint cache directory (empty keeps it in memory)")
	cacheTTL := fs.Duration("cache-ttl", getenvDuration("DUCK_CACHE_TTL", time.Hour), "hint cache entry lifetime")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:           *addr,
		AllowOrigins:   *origins,
		QueueSize:      *queue,
		BroadcastDepth: *depth,
		HintDepth:      *hintDepth,
		HintMaxDepth:   *hintMax,
		HintWorkers:    *workers,
		HintScope:      *scope,
		CacheDir:       *cacheDir,
		CacheTTL:       *cacheTTL,
	}
	lvl, err := ParseLevel(*level)
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = lvl

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.BroadcastDepth < 1:
		return fmt.Errorf("%w: broadcast depth must be positive, got %d", ErrInvalidConfig, c.BroadcastDepth)
	case c.HintDepth < 1 || c.HintDepth > c.HintMaxDepth:
		return fmt.Errorf("%w: hint depth %d outside 1..%d", ErrInvalidConfig, c.HintDepth, c.HintMaxDepth)
	case c.HintWorkers < 1:
		return fmt.Errorf("%w: hint workers must be positive, got %d", ErrInvalidConfig, c.HintWorkers)
	case c.HintScope != "opponent" && c.HintScope != "occupied":
		return fmt.Errorf("%w: hint scope %q", ErrInvalidConfig, c.HintScope)
	case c.CacheTTL < 0:
		return fmt.Errorf("%w: negative cache ttl", ErrInvalidConfig)
	}
	return nil
}

func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	}
	return log.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, s)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}
