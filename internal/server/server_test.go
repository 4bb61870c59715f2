package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsguard/fsguard/internal/logging"
	"github.com/fsguard/fsguard/internal/protocol"
)

const (
	replyTimeout = 2 * time.Second
	quietPeriod  = 300 * time.Millisecond
)

// A response with the result left undecoded.
type reply struct {
	Status bool            `json:"status"`
	Result json.RawMessage `json:"result"`
}

// Commands used by the session tests.
func testCommands() *Commands {
	c := NewCommands()
	c.Register("Echo", func(_ context.Context, p protocol.Params) (protocol.Response, error) {
		return protocol.OK(p["value"]), nil
	})
	c.Register("Fail", func(context.Context, protocol.Params) (protocol.Response, error) {
		return protocol.Response{}, errors.New("boom")
	})
	c.Register("Panic", func(context.Context, protocol.Params) (protocol.Response, error) {
		panic("boom")
	})
	return c
}

func startServer(t *testing.T, cfg Config, commands *Commands) *Server {
	t.Helper()

	cfg.Address = "127.0.0.1:0"
	if cfg.AcceptInterval == 0 {
		cfg.AcceptInterval = 50 * time.Millisecond
	}

	srv := New(cfg, commands, logging.Discard(), nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		srv.Stop()
		srv.Wait()
	})
	return srv
}

func dial(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn net.Conn, doc string) {
	t.Helper()
	_, err := conn.Write([]byte(doc))
	require.NoError(t, err)
}

func readReply(t *testing.T, conn net.Conn) reply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(replyTimeout)))
	var r reply
	require.NoError(t, json.NewDecoder(conn).Decode(&r))
	return r
}

// Asserts that nothing arrives on conn for the quiet period.
func expectSilence(t *testing.T, conn net.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(quietPeriod)))
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	require.Error(t, err, "unexpected data: %q", buf[:n])
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected timeout, got %v", err)
}

func TestSessionDispatch(t *testing.T) {
	srv := startServer(t, Config{}, testCommands())
	conn := dial(t, srv)

	send(t, conn, `{"name":"Echo","params":{"value":"hi"}}`)
	r := readReply(t, conn)
	assert.True(t, r.Status)
	assert.JSONEq(t, `"hi"`, string(r.Result))

	// The same connection serves further requests.
	send(t, conn, `{"name":"Echo","params":{"value":[1,2]}}`)
	r = readReply(t, conn)
	assert.JSONEq(t, `[1,2]`, string(r.Result))
}

func TestSessionErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown command", `{"name":"Format","params":{}}`, `"wrong_command"`},
		{"missing name", `{"params":{}}`, `"wrong_command"`},
		{"handler error", `{"name":"Fail","params":{}}`, `"error"`},
		{"handler panic", `{"name":"Panic","params":{}}`, `"error"`},
		{"non-object params", `{"name":"Echo","params":[1]}`, `"error"`},
		{"non-object request", `["Echo"]`, `"error"`},
	}

	srv := startServer(t, Config{}, testCommands())
	conn := dial(t, srv)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.doc)
			r := readReply(t, conn)
			assert.False(t, r.Status)
			assert.JSONEq(t, tt.want, string(r.Result))
		})
	}

	// None of the failures ended the session.
	send(t, conn, `{"name":"Echo","params":{"value":1}}`)
	assert.True(t, readReply(t, conn).Status)
}

func TestSessionNullParams(t *testing.T) {
	srv := startServer(t, Config{}, testCommands())
	conn := dial(t, srv)

	send(t, conn, `{"name":"Echo","params":null}`)
	r := readReply(t, conn)
	assert.True(t, r.Status)
	assert.JSONEq(t, `null`, string(r.Result))
}

func TestSessionReassemblesSplitRequest(t *testing.T) {
	srv := startServer(t, Config{}, testCommands())
	conn := dial(t, srv)

	doc := `{"name":"Echo","params":{"value":"split across reads"}}`
	send(t, conn, doc[:10])
	expectSilence(t, conn)
	send(t, conn, doc[10:30])
	expectSilence(t, conn)
	send(t, conn, doc[30:])

	r := readReply(t, conn)
	assert.True(t, r.Status)
	assert.JSONEq(t, `"split across reads"`, string(r.Result))
}

func TestSessionConcatenatedRequestsAnswerAtMostOnce(t *testing.T) {
	srv := startServer(t, Config{}, testCommands())
	conn := dial(t, srv)

	send(t, conn, `{"name":"Echo","params":{}}{"name":"Echo","params":{}}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(quietPeriod)))
	dec := json.NewDecoder(conn)
	replies := 0
	for {
		var r reply
		if err := dec.Decode(&r); err != nil {
			break
		}
		replies++
	}
	assert.LessOrEqual(t, replies, 1)
}

func TestSessionBufferOverflowDiscardsRequest(t *testing.T) {
	srv := startServer(t, Config{BufferLimit: 64}, testCommands())
	conn := dial(t, srv)

	send(t, conn, `{"name":"Echo","params":{"value":"`+strings.Repeat("x", 100))
	expectSilence(t, conn)

	// The rest of the discarded request does not complete anything.
	send(t, conn, `"}}`)
	expectSilence(t, conn)

	// The session survives and the next request is answered. The stray bytes
	// above are still buffered; overflow them away first.
	send(t, conn, strings.Repeat(" ", 64))
	expectSilence(t, conn)
	send(t, conn, `{"name":"Echo","params":{"value":2}}`)
	r := readReply(t, conn)
	assert.True(t, r.Status)
	assert.JSONEq(t, `2`, string(r.Result))
}

func TestSessionsAreCapped(t *testing.T) {
	srv := startServer(t, Config{MaxSessions: 1}, testCommands())

	first := dial(t, srv)
	send(t, first, `{"name":"Echo","params":{"value":1}}`)
	require.True(t, readReply(t, first).Status)

	// The second connection is established by the kernel but not served.
	second := dial(t, srv)
	send(t, second, `{"name":"Echo","params":{"value":2}}`)
	expectSilence(t, second)
	assert.Equal(t, 1, srv.Sessions())

	require.NoError(t, first.Close())

	r := readReply(t, second)
	assert.True(t, r.Status)
	assert.JSONEq(t, `2`, string(r.Result))
}

func TestStopLetsSessionsFinish(t *testing.T) {
	srv := startServer(t, Config{}, testCommands())
	conn := dial(t, srv)

	send(t, conn, `{"name":"Echo","params":{"value":1}}`)
	require.True(t, readReply(t, conn).Status)

	require.NoError(t, srv.Stop())

	_, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	assert.Error(t, err, "listener still accepting after stop")

	waited := make(chan struct{})
	go func() {
		srv.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while a session was still running")
	case <-time.After(quietPeriod):
	}

	// The in-flight session answers the request it receives, then exits.
	send(t, conn, `{"name":"Echo","params":{"value":2}}`)
	r := readReply(t, conn)
	assert.JSONEq(t, `2`, string(r.Result))

	select {
	case <-waited:
	case <-time.After(replyTimeout):
		t.Fatal("Wait did not return after the last session ended")
	}
	assert.Zero(t, srv.Sessions())
	assert.Zero(t, srv.gate.InUse())
}

func TestStopWithIdleSession(t *testing.T) {
	srv := startServer(t, Config{}, testCommands())
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return srv.Sessions() == 1 }, replyTimeout, 10*time.Millisecond)
	require.NoError(t, srv.Stop())

	waited := make(chan struct{})
	go func() {
		srv.Wait()
		close(waited)
	}()

	require.NoError(t, conn.Close())

	select {
	case <-waited:
	case <-time.After(replyTimeout):
		t.Fatal("Wait did not return after the peer disconnected")
	}
}

func TestIdleTimeoutClosesSession(t *testing.T) {
	srv := startServer(t, Config{IdleTimeout: 100 * time.Millisecond}, testCommands())
	conn := dial(t, srv)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(replyTimeout)))
	_, err := conn.Read(make([]byte, 1))
	assert.Error(t, err, "expected the server to close the idle connection")

	require.Eventually(t, func() bool { return srv.Sessions() == 0 }, replyTimeout, 10*time.Millisecond)
}

func TestStartTwice(t *testing.T) {
	srv := startServer(t, Config{}, testCommands())
	assert.ErrorIs(t, srv.Start(), ErrRunning)
}

func TestStartBindFailure(t *testing.T) {
	srv := startServer(t, Config{}, testCommands())

	other := New(Config{Address: srv.Addr().String()}, testCommands(), logging.Discard(), nil)
	assert.ErrorIs(t, other.Start(), ErrServer)
}

func TestNewDefaults(t *testing.T) {
	srv := New(Config{}, NewCommands(), logging.Discard(), nil)

	assert.Equal(t, DefaultAddress, srv.cfg.Address)
	assert.Equal(t, DefaultMaxSessions, srv.cfg.MaxSessions)
	assert.Equal(t, DefaultAcceptInterval, srv.cfg.AcceptInterval)
	assert.Equal(t, DefaultBufferLimit, srv.cfg.BufferLimit)
	assert.Zero(t, srv.cfg.IdleTimeout)
	assert.Nil(t, srv.Addr())
	assert.Zero(t, srv.Uptime())
}
