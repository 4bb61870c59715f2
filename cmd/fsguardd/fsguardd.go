package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/fsguard/fsguard/internal"
	"github.com/fsguard/fsguard/internal/cli"
)

// The entry point for the fsguardd daemon.
//
// Displays startup information and executes the root command. If any error
// occurs during execution, it exits with a non-zero code. Errors raised
// before the event log is open are written here, the rest by cli.Execute.
func main() {
	log := logger()

	log.Debug("build", "version", internal.VersionString())

	log.Debug("fsguardd is starting",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			log.Error(err.Error())
		}
		os.Exit(1)
	}
}

// Creates a stderr logger seeded from build-time linker flags.
//
// cli.Execute builds its own logger once flags are parsed.
func logger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: internal.LogLevel()})
	return slog.New(handler).WithGroup(internal.Name)
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
