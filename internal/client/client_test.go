package client

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsguard/fsguard/internal/protocol"
)

// Starts a listener that answers one request with reply and reports the
// request it decoded.
func fakeDaemon(t *testing.T, reply string) (string, <-chan protocol.Message) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan protocol.Message, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var msg protocol.Message
		if json.NewDecoder(conn).Decode(&msg) == nil {
			got <- msg
			conn.Write([]byte(reply))
		}
	}()

	return ln.Addr().String(), got
}

func TestCheckLocalFile(t *testing.T) {
	addr, got := fakeDaemon(t, `{"status": true, "result": [0, 4]}`)

	resp, err := New(addr, time.Second).CheckLocalFile(context.Background(), "./a.txt", "774066")
	require.NoError(t, err)

	msg := <-got
	assert.Equal(t, protocol.CmdCheckLocalFile, msg.Name)
	assert.Equal(t, protocol.Params{"file_path": "./a.txt", "signature": "774066"}, msg.Params)

	assert.True(t, resp.Status)
	assert.Equal(t, []any{0.0, 4.0}, resp.Result)
}

func TestQuarantineLocalFile(t *testing.T) {
	addr, got := fakeDaemon(t, `{"status": false, "result": "no_such_file"}`)

	resp, err := New(addr, time.Second).QuarantineLocalFile(context.Background(), "/tmp/x")
	require.NoError(t, err)

	msg := <-got
	assert.Equal(t, protocol.CmdQuarantineLocalFile, msg.Name)
	assert.Equal(t, protocol.Params{"file_path": "/tmp/x"}, msg.Params)
	assert.Equal(t, &protocol.Response{Status: false, Result: "no_such_file"}, resp)
}

func TestConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = New(addr, time.Second).QuarantineLocalFile(context.Background(), "/tmp/x")
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, protocol.NewFailure(protocol.CodeConnectionRefused), AsFailure(err))
}

func TestNoResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	_, err = New(ln.Addr().String(), time.Second).QuarantineLocalFile(context.Background(), "/tmp/x")
	require.ErrorIs(t, err, ErrTransport)

	f := AsFailure(err)
	assert.False(t, f.Status)
	assert.NotEmpty(t, f.Message)
	assert.NotContains(t, f.Message, ErrTransport.Error())
}

func TestLooksLikePath(t *testing.T) {
	for path, want := range map[string]bool{
		"/etc/passwd":   true,
		"./upload/a.js": true,
		"../a":          true,
		"a.txt":         false,
		"/tmp/":         false,
		"":              false,
	} {
		assert.Equal(t, want, LooksLikePath(path), "LooksLikePath(%q)", path)
	}
}
