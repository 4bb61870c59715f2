package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	daemonName = "fsguardd"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644

	// Quarantine directory used when the configured one cannot be created.
	// Relative to the daemon's working directory.
	DefaultQuarantine = "quarantine"
)

// Path to the directory for runtime files (PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/fsguardd or /run/user/<uid>/fsguardd
//	macOS:   ~/Library/Caches/fsguardd/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, daemonName)
	}
	return filepath.Join(xdg.CacheHome, daemonName, "run")
}

// Path to the directory holding the event log.
//
//	Linux:   $XDG_STATE_HOME/fsguardd or ~/.local/state/fsguardd
//	macOS:   ~/Library/Application Support/fsguardd
func State() string {
	return filepath.Join(xdg.StateHome, daemonName)
}

// Default path to the PID file.
func PIDFile() string {
	return filepath.Join(Runtime(), "fsguardd.pid")
}

// Default path to the append-only event log.
func LogFile() string {
	return filepath.Join(State(), "server.log")
}
