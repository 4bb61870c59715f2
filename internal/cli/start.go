package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/fsguard/fsguard/internal/config"
	"github.com/fsguard/fsguard/internal/paths"
	"github.com/fsguard/fsguard/internal/quarantine"
	"github.com/fsguard/fsguard/internal/scan"
	"github.com/fsguard/fsguard/internal/server"
)

// Time allowed for the metrics endpoint to drain on shutdown.
const metricsShutdownTimeout = 5 * time.Second

// Represents the 'fsguardd start' command.
type StartCmd struct {
	Address        string        `short:"a" help:"TCP address to listen on." default:"${address}"`
	QuarantineDir  string        `name:"quarantine-directory" short:"q" help:"Directory for quarantined files." default:"${quarantine_dir}" placeholder:"DIR"`
	OnCollision    string        `help:"What to do when a quarantined file name is taken (${enum})." enum:"overwrite,rename,reject" default:"${on_collision}"`
	MaxSessions    int           `name:"threads-max" short:"t" help:"Maximum number of sessions served at once." default:"${max_sessions}"`
	AcceptInterval time.Duration `help:"How often the accept loop checks for shutdown." default:"${accept_interval}"`
	IdleTimeout    time.Duration `help:"Close sessions idle for this long. Zero waits indefinitely." default:"${idle_timeout}"`
	BufferLimit    int           `help:"Receive buffer cap per session, in bytes." default:"${buffer_limit}"`
	MaxSignatureKB int           `name:"max-signature-kb" help:"Maximum decoded signature size, in KiB." default:"${max_signature_kb}"`
	MetricsAddress string        `help:"Serve Prometheus metrics on this address. Empty disables." default:"${metrics_address}" placeholder:"ADDR"`
}

// Executes the start command.
//
// Prepares the quarantine directory, starts the TCP server and blocks until
// the context is cancelled (e.g. via SIGINT or SIGTERM). On cancellation the
// server stops accepting and the command returns once every session has
// finished.
func (c *StartCmd) Run(ctx context.Context, log *slog.Logger) error {
	cfg := c.config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	policy, err := quarantine.ParsePolicy(cfg.OnCollision)
	if err != nil {
		return err
	}

	dir, err := quarantine.Prepare(cfg.QuarantineDir, paths.DefaultQuarantine, log)
	if err != nil {
		return err
	}

	log.Info("quarantine directory", "path", dir, "on_collision", policy)
	log.Info("max sessions", "count", cfg.MaxSessions)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := server.NewMetrics(reg)

	commands := server.FileCommands(scan.New(cfg.MaxSignatureKB), quarantine.New(dir, policy, log), log, metrics)

	srv := server.New(server.Config{
		Address:        cfg.Address,
		MaxSessions:    cfg.MaxSessions,
		AcceptInterval: cfg.AcceptInterval,
		IdleTimeout:    cfg.IdleTimeout,
		BufferLimit:    cfg.BufferLimit,
	}, commands, log, metrics)

	if err := srv.Start(); err != nil {
		return err
	}

	pidFile := paths.PIDFile()
	if pid, err := readPID(pidFile); err == nil {
		log.Debug("replacing PID file", "path", pidFile, "previous", pid)
	}
	if err := writePID(pidFile); err != nil {
		log.Warn("PID file not written", "error", err)
	} else {
		defer removePID(pidFile)
	}

	log.Info("fsguardd is running", "address", srv.Addr().String())

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddress != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddress, reg, log)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		log.Info("shutting down")
		srv.Stop()

		log.Debug("waiting for sessions to shut down")
		srv.Wait()

		log.Info("all sessions shut down gracefully", "uptime", srv.Uptime())
		return nil
	})

	return g.Wait()
}

// Returns the configuration given by the flags.
func (c *StartCmd) config() config.Config {
	return config.Config{
		Address:        c.Address,
		QuarantineDir:  c.QuarantineDir,
		OnCollision:    c.OnCollision,
		MaxSessions:    c.MaxSessions,
		AcceptInterval: c.AcceptInterval,
		IdleTimeout:    c.IdleTimeout,
		BufferLimit:    c.BufferLimit,
		MaxSignatureKB: c.MaxSignatureKB,
		LogFile:        RootCmd.LogFile,
		MetricsAddress: c.MetricsAddress,
	}
}

// Serves the metrics endpoint until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	hs := &http.Server{
		Handler:           server.MetricsHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		hs.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", "address", ln.Addr().String())

	if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
