package server

import (
	"context"
	"sort"

	"github.com/fsguard/fsguard/internal/protocol"
)

// Executes one command.
//
// The returned response is sent to the client unchanged. A returned error,
// or a panic, is answered with a generic "error" result instead.
type Handler func(ctx context.Context, params protocol.Params) (protocol.Response, error)

// Maps command names to handlers.
//
// Commands are registered before the server starts and only read afterwards.
type Commands struct {
	handlers map[string]Handler
}

// Creates an empty command table.
func NewCommands() *Commands {
	return &Commands{handlers: make(map[string]Handler)}
}

// Registers h under name, replacing any previous handler.
func (c *Commands) Register(name string, h Handler) {
	c.handlers[name] = h
}

// Returns the handler registered under name.
func (c *Commands) Lookup(name string) (Handler, bool) {
	h, ok := c.handlers[name]
	return h, ok
}

// Returns the registered command names, sorted.
func (c *Commands) Names() []string {
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
