package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fsguard/fsguard/internal/protocol"
	"github.com/fsguard/fsguard/internal/quarantine"
	"github.com/fsguard/fsguard/internal/scan"
)

// Returns the command table of the daemon: CheckLocalFile backed by scanner
// and QuarantineLocalFile backed by vault.
func FileCommands(scanner *scan.Scanner, vault *quarantine.Vault, log *slog.Logger, metrics *Metrics) *Commands {
	c := NewCommands()
	c.Register(protocol.CmdCheckLocalFile, checkLocalFile(scanner, log))
	c.Register(protocol.CmdQuarantineLocalFile, quarantineLocalFile(vault, log, metrics))
	return c
}

// Handles a CheckLocalFile command.
//
// Answers with the offsets of the signature in the file, or with the code of
// the first check that failed. Read errors are reported as "error: <detail>".
func checkLocalFile(scanner *scan.Scanner, log *slog.Logger) Handler {
	return func(_ context.Context, params protocol.Params) (protocol.Response, error) {
		path, hasPath, err := params.String("file_path")
		if err != nil {
			return protocol.Response{}, err
		}
		signature, hasSignature, err := params.String("signature")
		if err != nil {
			return protocol.Response{}, err
		}

		if !hasPath || !hasSignature {
			log.Info("incomplete parameters", "has_path", hasPath, "has_signature", hasSignature)
			return protocol.Fail(protocol.CodeIncompleteParameters), nil
		}

		offsets, err := scanner.Check(path, signature)
		switch {
		case err == nil:
			log.Info("file checked", "path", path, "matches", len(offsets))
			return protocol.OK(offsets), nil
		case errors.Is(err, scan.ErrNoSuchFile):
			log.Error("no such file", "path", path)
			return protocol.Fail(protocol.CodeNoSuchFile), nil
		case errors.Is(err, scan.ErrTooBigSignature):
			log.Info("too big signature", "error", err)
			return protocol.Fail(protocol.CodeTooBigSignature), nil
		case errors.Is(err, scan.ErrNotASignature):
			log.Error("can't decode signature", "error", err)
			return protocol.Fail(protocol.CodeNotASignature), nil
		default:
			log.Error("scan failed", "path", path, "error", err)
			return protocol.Fail(protocol.CodeError + ": " + err.Error()), nil
		}
	}
}

// Handles a QuarantineLocalFile command.
//
// A missing or non-string file_path is reported like a missing file.
func quarantineLocalFile(vault *quarantine.Vault, log *slog.Logger, metrics *Metrics) Handler {
	return func(_ context.Context, params protocol.Params) (protocol.Response, error) {
		path, ok, err := params.String("file_path")
		if err != nil || !ok {
			return protocol.Fail(protocol.CodeNoSuchFile), nil
		}

		rec, err := vault.Move(path)
		if err != nil {
			if errors.Is(err, quarantine.ErrNoSuchFile) {
				return protocol.Fail(protocol.CodeNoSuchFile), nil
			}
			log.Error("error quarantining file", "path", path, "error", err)
			return protocol.Fail(protocol.CodeError), nil
		}

		log.Info("file quarantined", "source", rec.Source, "destination", rec.Destination, "digest", rec.Digest)
		metrics.fileQuarantined()
		return protocol.OK(protocol.CodeMoved), nil
	}
}
