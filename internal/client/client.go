// Package client talks to a running fsguardd daemon.
//
// Each call opens a connection, sends one request, reads one response and
// closes the connection. Failures to reach the daemon are reported with
// [AsFailure], which uses the "message" key instead of "result".
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/fsguard/fsguard/internal/protocol"
)

// Default time allowed for one exchange.
const DefaultTimeout = 30 * time.Second

// Sends commands to the daemon at a fixed address.
type Client struct {
	address string
	timeout time.Duration
	dialer  net.Dialer
}

// Creates a client for the daemon at address.
//
// A non-positive timeout uses [DefaultTimeout].
func New(address string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{address: address, timeout: timeout}
}

// Sends a command and returns the daemon's response.
//
// Errors wrap [ErrTransport]; no response was received in that case.
func (c *Client) Send(ctx context.Context, name string, params protocol.Params) (*protocol.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	data, err := protocol.EncodeMessage(name, params)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	var resp protocol.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return &resp, nil
}

// Asks the daemon for the offsets of signature in the file at path.
func (c *Client) CheckLocalFile(ctx context.Context, path, signature string) (*protocol.Response, error) {
	return c.Send(ctx, protocol.CmdCheckLocalFile, protocol.Params{
		"file_path": path,
		"signature": signature,
	})
}

// Asks the daemon to quarantine the file at path.
func (c *Client) QuarantineLocalFile(ctx context.Context, path string) (*protocol.Response, error) {
	return c.Send(ctx, protocol.CmdQuarantineLocalFile, protocol.Params{
		"file_path": path,
	})
}

// Converts a transport error into the failure reported to the user.
func AsFailure(err error) protocol.Failure {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return protocol.NewFailure(protocol.CodeConnectionRefused)
	}
	return protocol.NewFailure(strings.TrimPrefix(err.Error(), ErrTransport.Error()+": "))
}

// Whether path is written like a file path: starting with "." or "/" and
// not ending with "/". Invalid characters are left for the daemon to reject.
func LooksLikePath(path string) bool {
	return (strings.HasPrefix(path, ".") || strings.HasPrefix(path, "/")) && !strings.HasSuffix(path, "/")
}
