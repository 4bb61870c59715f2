// Package quarantine relocates suspicious files into a restricted directory.
//
// A [Vault] moves a file into its directory under the file's base name. The
// file's SHA-256 digest is taken before the move and both logged and
// returned, so the event log records exactly which content was quarantined.
// Name collisions are resolved by the vault's [Policy].
//
// [Prepare] implements the startup directory policy: the configured
// directory, else a fixed fallback, else a fatal error.
//
// Example usage:
//
//	dir, err := quarantine.Prepare(cfg.QuarantineDir, "quarantine", log)
//	if err != nil {
//	    return err
//	}
//
//	v := quarantine.New(dir, quarantine.Overwrite, log)
//	rec, err := v.Move("/srv/upload/invoice.exe")
package quarantine
