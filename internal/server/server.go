package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (

	// Default TCP address to listen on.
	DefaultAddress = "127.0.0.1:65432"

	// Default interval at which the accept loop checks for shutdown.
	DefaultAcceptInterval = time.Second

	// Default receive buffer cap per session, in bytes.
	DefaultBufferLimit = 1024 * 1024
)

// Holds server configuration. Zero fields take their defaults.
type Config struct {
	Address        string        // TCP address to listen on. Empty uses [DefaultAddress].
	MaxSessions    int           // Sessions allowed at once. Zero uses [DefaultMaxSessions].
	AcceptInterval time.Duration // Accept poll interval. Zero uses [DefaultAcceptInterval].
	IdleTimeout    time.Duration // Per-read deadline. Zero waits for the peer indefinitely.
	BufferLimit    int           // Receive buffer cap. Zero uses [DefaultBufferLimit].
}

// Accepts TCP connections and runs one session per connection.
type Server struct {
	cfg      Config
	commands *Commands
	log      *slog.Logger
	metrics  *Metrics

	gate     *gate
	sessions *registry
	listener *net.TCPListener

	shutdown atomic.Bool        // Set once by Stop; polled by the acceptor and sessions.
	ctx      context.Context    // Cancelled by Stop to abandon a pending gate acquisition.
	cancel   context.CancelFunc // Cancels ctx.
	stopOnce sync.Once

	acceptor sync.WaitGroup // Tracks the accept loop.
	workers  sync.WaitGroup // Tracks every spawned session.

	mu        sync.Mutex
	startedAt time.Time
}

// Creates a new server instance.
//
// The socket is not opened until [Server.Start] is called. metrics may be
// nil.
func New(cfg Config, commands *Commands, log *slog.Logger, metrics *Metrics) *Server {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.AcceptInterval <= 0 {
		cfg.AcceptInterval = DefaultAcceptInterval
	}
	if cfg.BufferLimit <= 0 {
		cfg.BufferLimit = DefaultBufferLimit
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:      cfg,
		commands: commands,
		log:      log.With("component", "server"),
		metrics:  metrics,
		gate:     newGate(cfg.MaxSessions),
		sessions: newRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Binds the listening socket and starts the accept loop.
//
// Failing to bind is fatal for the daemon and is returned wrapped in
// [ErrServer].
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrRunning
	}

	addr, err := net.ResolveTCPAddr("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServer, err)
	}

	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: failed to listen on %s: %w", ErrServer, s.cfg.Address, err)
	}

	s.listener = listener
	s.startedAt = time.Now()

	s.log.Info("waiting for clients",
		"address", listener.Addr().String(),
		"max_sessions", s.cfg.MaxSessions,
		"commands", s.commands.Names(),
	)

	s.acceptor.Add(1)
	go s.accept()
	return nil
}

// Address the server is listening on, or nil before [Server.Start].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stops accepting connections.
//
// Sets the shutdown flag and closes the listener. Running sessions finish
// the request they are handling and exit before their next read; a session
// waiting on an idle peer exits only when the peer sends, disconnects or
// its idle timeout expires. Safe to call more than once.
func (s *Server) Stop() error {
	var err error

	s.stopOnce.Do(func() {
		s.log.Info("stopping server", "sessions", s.sessions.len())

		s.shutdown.Store(true)
		s.cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.listener != nil {
			err = s.listener.Close()
		}
	})

	return err
}

// Blocks until the accept loop and every session have exited.
func (s *Server) Wait() {
	s.acceptor.Wait()

	if peers := s.sessions.peers(); len(peers) > 0 {
		s.log.Debug("waiting for sessions to finish", "peers", peers)
	}
	s.workers.Wait()

	s.log.Info("all sessions finished")
}

// Number of sessions currently running.
func (s *Server) Sessions() int {
	return s.sessions.len()
}

// Time elapsed since [Server.Start], truncated to the second.
func (s *Server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt).Truncate(time.Second)
}

func (s *Server) shuttingDown() bool {
	return s.shutdown.Load()
}

// Accepts connections in a loop until the server shuts down.
//
// The listener deadline is renewed every iteration so the loop notices the
// shutdown flag within one accept interval even if the close that unblocks
// Accept is missed.
func (s *Server) accept() {
	defer s.acceptor.Done()

	for !s.shuttingDown() {
		s.listener.SetDeadline(time.Now().Add(s.cfg.AcceptInterval))

		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if s.shuttingDown() {
				break
			}
			s.log.Error("can't accept connection", "error", err)
			continue
		}

		s.log.Debug("acquiring session slot", "peer", conn.RemoteAddr().String(), "in_use", s.gate.InUse())

		if err := s.gate.Acquire(s.ctx); err != nil {
			conn.Close()
			break
		}

		s.spawn(conn)
	}

	s.log.Debug("accept loop stopped")
}

// Registers and starts a session for conn. The caller holds a gate slot,
// which the session releases.
func (s *Server) spawn(conn net.Conn) {
	sess := newSession(s, conn)
	s.sessions.add(sess)
	s.metrics.sessionOpened()

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		sess.run()
	}()
}
