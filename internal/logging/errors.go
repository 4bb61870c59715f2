package logging

import "errors"

var ErrLogFile = errors.New("cannot open log file")
