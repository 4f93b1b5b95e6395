// Command readscript generates reading scripts for voice recording sessions
// and measures the speaker's rate from recorded samples.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── Logger ────────────────────────────────────────────────────────────────
	// The level is raised or lowered once the config has been read.
	level := new(slog.LevelVar)
	slog.SetDefault(newLogger(level))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx, os.Args[1:], cli.Options{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Level:       level,
		Interactive: func() bool { return isTerminal(os.Stdin) },
		Color:       isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readscript: %v\n", err)
		slog.Debug("command failed", "kind", apperr.KindOf(err).String(), "err", err)
		return apperr.ExitCode(err)
	}
	return 0
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
