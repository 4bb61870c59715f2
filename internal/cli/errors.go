package cli

import "errors"

// Wraps errors that Execute has already written to the event log.
var ErrReported = errors.New("fatal")
