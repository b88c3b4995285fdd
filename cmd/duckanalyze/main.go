// Command duckanalyze replays a duck chess game and prints the best
// continuations of its final position.
//
//	duckanalyze -depth 3 -k 5 game.pgn
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/benbeisheim/duckchess-backend/internal/engine"
	"github.com/benbeisheim/duckchess-backend/internal/pgn"
	"github.com/benbeisheim/duckchess-backend/internal/storage"
	"github.com/gofiber/fiber/v2/log"
)

type options struct {
	depth    int
	k        int
	scope    string
	cacheDir string
	timeout  time.Duration
}

func newFlagSet(name string, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.IntVar(&opts.depth, "depth", 2, "search depth in turns, each a piece move and a duck placement")
	fs.IntVar(&opts.k, "k", engine.DefaultK, "lines to print")
	fs.StringVar(&opts.scope, "scope", "opponent", "duck squares tried: opponent or occupied")
	fs.StringVar(&opts.cacheDir, "cache-dir", "", "read hints from the server's cache directory")
	fs.DurationVar(&opts.timeout, "timeout", time.Minute, "search time limit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] [game.pgn]\n", name)
		fs.PrintDefaults()
	}
	return fs
}

func main() {
	var opts options
	fs := newFlagSet(os.Args[0], &opts)
	fs.Parse(os.Args[1:])

	in := io.Reader(os.Stdin)
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	if err := analyze(ctx, in, os.Stdout, opts.depth, opts.k, opts.scope, opts.cacheDir); err != nil {
		log.Fatal(err)
	}
}

// cachedResult reads the fields it needs from a server hint entry.
type cachedResult struct {
	Lines []engine.Line `json:"lines"`
	Nodes int           `json:"nodes"`
}

func analyze(ctx context.Context, in io.Reader, out io.Writer, depth, k int, scopeName, cacheDir string) error {
	scope, err := engine.ParseDuckScope(scopeName)
	if err != nil {
		return err
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	game, err := pgn.Parse(string(text))
	if err != nil {
		return err
	}
	start, err := game.Start()
	if err != nil {
		return err
	}
	cb, moves, err := pgn.ReplayFrom(start, game.Moves)
	if err != nil {
		return err
	}
	board := cb.Board()
	fmt.Fprintf(out, "%d moves\n%s\n\n%s\n", len(moves), board.FEN(), board)

	var cache *storage.HintCache
	key := storage.HintKey(board.FEN(), board.MovedPiece(), depth, scope.String())
	if cacheDir != "" {
		if cache, err = storage.Open(cacheDir, 0); err != nil {
			return err
		}
		defer cache.Close()
	}

	var res cachedResult
	found := false
	if cache != nil {
		if found, err = cache.Get(key, &res); err != nil {
			log.Warnf("cache read: %v", err)
		}
	}
	if !found || len(res.Lines) < k {
		r, err := engine.Search(ctx, cb, depth, engine.Options{K: k, Scope: scope})
		if err != nil {
			return err
		}
		res = cachedResult{Lines: r.Lines, Nodes: r.Nodes}
	}
	if len(res.Lines) > k {
		res.Lines = res.Lines[:k]
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tscore\tmove\n")
	for i, line := range res.Lines {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", i+1, line.Score, pgn.Format(&cb, line.Move))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d nodes at depth %d\n", res.Nodes, depth)
	return nil
}
