package scan

import (
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	ErrNoSuchFile      = fmt.Errorf("no such file: %w", errdefs.ErrNotFound)
	ErrTooBigSignature = fmt.Errorf("signature too big: %w", errdefs.ErrInvalidArgument)
	ErrNotASignature   = fmt.Errorf("not a hex signature: %w", errdefs.ErrInvalidArgument)
)
