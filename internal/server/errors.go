package server

import "errors"

var (
	ErrServer  = errors.New("server error")
	ErrRunning = errors.New("server already started")
	ErrPanic   = errors.New("handler panicked")
)
