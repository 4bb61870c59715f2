package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/fsguard/fsguard/internal"
	"github.com/fsguard/fsguard/internal/config"
	"github.com/fsguard/fsguard/internal/logging"
)

// Represents the root command for the fsguardd daemon.
var RootCmd struct {
	Quiet   bool       `help:"Suppress informational output."`
	Verbose bool       `short:"v" help:"Enable verbose output."`
	Debug   bool       `short:"d" help:"Enable debug output."`
	LogFile string     `help:"Append-only event log. Empty disables the file." default:"${log_file}" placeholder:"PATH"`
	Start   StartCmd   `cmd:"" help:"Start the daemon."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, builds the logger, and runs the selected subcommand.
//
// Flag defaults come from the FSGUARD_* environment. The context passed to
// the subcommand is cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, err := config.Load()
	if err != nil {
		return err
	}

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("The fsguard daemon.\n\nScans local files for byte signatures and quarantines them on request from fsguard clients."),
		kong.UsageOnError(),
		kong.Vars(defaults(env)),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureModes()

	log, err := logging.New(logging.Options{
		Level:  internal.LogLevel(),
		File:   RootCmd.LogFile,
		Stream: os.Stderr,
		Group:  groupName(),
	})
	if err != nil {
		return err
	}
	defer log.Close()

	return runLogged(log.Logger, func(log *slog.Logger) error {
		return kongCtx.Run(log)
	})
}

// Runs fn and writes any error it returns to log, so fatal failures reach
// the event log before the file is closed. The returned error wraps
// [ErrReported].
func runLogged(log *slog.Logger, fn func(*slog.Logger) error) error {
	if err := fn(log); err != nil {
		log.Error(err.Error())
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	return nil
}

// Applies the output flags on top of the build-time defaults.
func configureModes() {
	if RootCmd.Debug {
		internal.SetDebug(true)
	}
	if RootCmd.Quiet {
		internal.SetQuiet(true)
	}
	if RootCmd.Verbose {
		internal.SetVerbose(true)
	}
}

// Verbose output nests record attributes under the daemon name.
func groupName() string {
	if internal.IsVerbose() {
		return internal.Name
	}
	return ""
}

// Returns the flag defaults derived from cfg.
func defaults(cfg config.Config) kong.Vars {
	return kong.Vars{
		"version":          internal.VersionString(),
		"address":          cfg.Address,
		"quarantine_dir":   cfg.QuarantineDir,
		"on_collision":     cfg.OnCollision,
		"max_sessions":     strconv.Itoa(cfg.MaxSessions),
		"accept_interval":  cfg.AcceptInterval.String(),
		"idle_timeout":     cfg.IdleTimeout.String(),
		"buffer_limit":     strconv.Itoa(cfg.BufferLimit),
		"max_signature_kb": strconv.Itoa(cfg.MaxSignatureKB),
		"log_file":         cfg.LogFile,
		"metrics_address":  cfg.MetricsAddress,
	}
}
