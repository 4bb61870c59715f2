package quarantine

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	ErrNoSuchFile  = fmt.Errorf("no such file: %w", errdefs.ErrNotFound)
	ErrCollision   = fmt.Errorf("quarantined file exists: %w", errdefs.ErrAlreadyExists)
	ErrPolicy      = fmt.Errorf("unknown collision policy: %w", errdefs.ErrInvalidArgument)
	ErrNoDirectory = errors.New("no usable quarantine directory")
	ErrMove        = errors.New("move failed")
	ErrVerify      = errors.New("copy does not match source digest")
)
