package cli

import (
	"context"
	"fmt"

	"github.com/fsguard/fsguard/internal"
)

// Represents the 'fsguardd version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
