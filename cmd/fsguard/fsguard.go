package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/fsguard/fsguard/internal"
	"github.com/fsguard/fsguard/internal/client"
	"github.com/fsguard/fsguard/internal/protocol"
	"github.com/fsguard/fsguard/internal/scan"
	"github.com/fsguard/fsguard/internal/server"
)

// Represents the root command for the fsguard client.
type rootCmd struct {
	Address        string            `short:"a" help:"Address of the fsguardd daemon." default:"${address}" env:"FSGUARD_ADDRESS"`
	Timeout        time.Duration     `help:"Time allowed for one exchange." default:"${timeout}"`
	MaxSignatureKB int               `name:"max-signature-kb" help:"Largest signature accepted before sending, in KiB." default:"${max_signature_kb}"`
	CheckFile      checkFileCmd      `cmd:"" help:"Check a file on the daemon's host for a signature."`
	QuarantineFile quarantineFileCmd `cmd:"" help:"Move a file on the daemon's host into quarantine."`
	Version        kong.VersionFlag  `help:"Show version information."`
}

// Represents the 'fsguard check-file' command.
type checkFileCmd struct {
	File      string `short:"f" required:"" help:"Path to the file on the daemon's host." placeholder:"PATH"`
	Signature string `short:"s" required:"" help:"Hex signature to look for, e.g. 774066 for 'w@f'." placeholder:"HEX"`
}

// Represents the 'fsguard quarantine-file' command.
type quarantineFileCmd struct {
	File string `short:"f" required:"" help:"Path to the file to quarantine, /abs/path or ./relative/path." placeholder:"PATH"`
}

// The entry point for the fsguard client.
//
// Prints the daemon's response as JSON. Exits 1 on invalid arguments or when
// no response could be obtained.
func main() {
	var root rootCmd

	kongCtx := kong.Parse(&root,
		kong.Name(internal.ClientName),
		kong.Description("Client for the fsguard daemon.\n\nChecks remote files for signatures and quarantines them."),
		kong.UsageOnError(),
		kong.Vars{
			"version":          internal.VersionString(),
			"address":          server.DefaultAddress,
			"timeout":          client.DefaultTimeout.String(),
			"max_signature_kb": fmt.Sprint(scan.DefaultMaxSignatureKB),
		},
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)

	err := kongCtx.Run(client.New(root.Address, root.Timeout), &root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Executes the check-file command.
func (c *checkFileCmd) Run(ctx context.Context, w io.Writer, cl *client.Client, root *rootCmd) error {
	if err := checkPath(c.File); err != nil {
		return err
	}
	if len(c.Signature) > root.MaxSignatureKB*1024*2 {
		return fmt.Errorf("%w: signature exceeds %d KiB", client.ErrUsage, root.MaxSignatureKB)
	}
	if _, err := scan.Decode(c.Signature); err != nil {
		return fmt.Errorf("%w: wrong signature", client.ErrUsage)
	}

	resp, err := cl.CheckLocalFile(ctx, c.File, c.Signature)
	return report(w, resp, err)
}

// Executes the quarantine-file command.
func (c *quarantineFileCmd) Run(ctx context.Context, w io.Writer, cl *client.Client) error {
	if err := checkPath(c.File); err != nil {
		return err
	}

	resp, err := cl.QuarantineLocalFile(ctx, c.File)
	return report(w, resp, err)
}

func checkPath(path string) error {
	if !client.LooksLikePath(path) {
		return fmt.Errorf("%w: %q does not look like a file path", client.ErrUsage, path)
	}
	return nil
}

// Writes the daemon's response, or the transport failure, as one JSON line.
//
// A transport failure is printed and returned so the process exits 1.
func report(w io.Writer, resp *protocol.Response, err error) error {
	enc := json.NewEncoder(w)
	if err != nil {
		if encErr := enc.Encode(client.AsFailure(err)); encErr != nil {
			return encErr
		}
		return err
	}
	return enc.Encode(resp)
}
