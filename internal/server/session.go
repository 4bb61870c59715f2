package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/fsguard/fsguard/internal/protocol"
)

// Bytes requested from the socket per read.
const readSize = 1024

// Serves one accepted connection.
//
// A session answers one request at a time: it reads until the buffered bytes
// parse as a request, dispatches it, writes the response, and only then
// reads again.
type session struct {
	id   string
	peer string
	conn net.Conn
	srv  *Server
	buf  *protocol.Accumulator
	log  *slog.Logger

	ctx    context.Context // Passed to handlers; cancelled when the session closes.
	cancel context.CancelFunc
}

func newSession(srv *Server, conn net.Conn) *session {
	id := uuid.NewString()
	peer := conn.RemoteAddr().String()
	ctx, cancel := context.WithCancel(context.Background())

	return &session{
		id:     id,
		peer:   peer,
		conn:   conn,
		srv:    srv,
		buf:    protocol.NewAccumulator(srv.cfg.BufferLimit),
		log:    srv.log.With("session", id, "peer", peer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Runs the read/dispatch/respond loop until the peer disconnects, a socket
// error occurs, or shutdown is observed between requests.
func (s *session) run() {
	s.log.Info("connected")
	defer s.close()

	chunk := make([]byte, readSize)

	for !s.srv.shuttingDown() {
		if s.srv.cfg.IdleTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.srv.cfg.IdleTimeout))
		}

		n, err := s.conn.Read(chunk)
		if n > 0 {
			if !s.receive(chunk[:n]) {
				return
			}
		}

		if err != nil {
			var netErr net.Error
			switch {
			case errors.Is(err, io.EOF):
				s.log.Debug("peer closed connection")
			case errors.As(err, &netErr) && netErr.Timeout():
				s.log.Info("idle timeout", "timeout", s.srv.cfg.IdleTimeout)
			default:
				s.log.Warn("read failed", "error", err)
			}
			return
		}
	}

	s.log.Debug("shutdown observed")
}

// Buffers chunk and answers the request it completes, if any.
//
// Returns false when the session must end.
func (s *session) receive(chunk []byte) bool {
	doc, err := s.buf.Feed(chunk)
	if errors.Is(err, protocol.ErrBufferOverflow) {
		s.log.Warn("buffer overflow, clearing buffer", "limit", s.srv.cfg.BufferLimit)
		s.srv.metrics.bufferOverflow()
		return true
	}
	if doc == nil {
		return true
	}

	resp := s.dispatch(doc)

	if err := s.respond(resp); err != nil {
		s.log.Warn("write failed", "error", err)
		return false
	}
	return true
}

// Decodes a complete document and runs the command it names.
func (s *session) dispatch(doc []byte) protocol.Response {
	msg, err := protocol.Decode(doc)
	if msg == nil {
		s.log.Error("malformed request", "error", err)
		s.srv.metrics.commandAnswered("", false, false)
		return protocol.Fail(protocol.CodeError)
	}

	h, ok := s.srv.commands.Lookup(msg.Name)
	if !ok {
		s.log.Error("wrong command", "command", msg.Name)
		s.srv.metrics.commandAnswered(msg.Name, false, false)
		return protocol.Fail(protocol.CodeWrongCommand)
	}

	if err == nil {
		var resp protocol.Response
		resp, err = s.call(h, msg.Params)
		if err == nil {
			s.log.Info("executed", "command", msg.Name, "params", msg.Params, "status", resp.Status)
			s.srv.metrics.commandAnswered(msg.Name, true, resp.Status)
			return resp
		}
	}

	s.log.Error("command failed", "command", msg.Name, "error", err)
	s.srv.metrics.commandAnswered(msg.Name, true, false)
	return protocol.Fail(protocol.CodeError)
}

// Invokes h, converting a panic into an error.
func (s *session) call(h Handler, params protocol.Params) (resp protocol.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return h(s.ctx, params)
}

// Writes resp to the peer.
//
// A response that cannot be encoded is replaced by a generic error.
func (s *session) respond(resp protocol.Response) error {
	data, err := protocol.Encode(resp)
	if err != nil {
		s.log.Error("encode response failed", "error", err)
		data, _ = protocol.Encode(protocol.Fail(protocol.CodeError))
	}
	_, err = s.conn.Write(data)
	return err
}

// Closes the connection and gives back the session's slot.
func (s *session) close() {
	s.cancel()

	s.log.Debug("closing connection")
	s.conn.Close()

	s.log.Debug("releasing session slot")
	s.srv.gate.Release()

	s.srv.sessions.remove(s.id)
	s.srv.metrics.sessionClosed()

	s.log.Info("disconnected")
}
