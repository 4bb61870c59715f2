package client

import "errors"

var (
	ErrTransport = errors.New("transport error")
	ErrUsage     = errors.New("invalid arguments")
)
