package quarantine

import (
	"fmt"
	"log/slog"
	"os"
)

// Permission mode for quarantine directories created by [Prepare].
const dirMode os.FileMode = 0700

// Returns a usable quarantine directory.
//
// Uses dir if it is already a directory, or creates it with its parents.
// If that fails, the same is tried with fallback. [ErrNoDirectory] means
// neither could be used and the daemon cannot start.
func Prepare(dir, fallback string, log *slog.Logger) (string, error) {
	err := ensureDir(dir, log)
	if err == nil {
		return dir, nil
	}

	log.Error("cannot create quarantine directory, trying default", "path", dir, "fallback", fallback, "error", err)

	if ferr := ensureDir(fallback, log); ferr != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNoDirectory, fallback, ferr)
	}
	return fallback, nil
}

func ensureDir(path string, log *slog.Logger) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		log.Debug("quarantine directory already exists", "path", path)
		return nil
	}

	log.Debug("creating quarantine directory", "path", path)
	return os.MkdirAll(path, dirMode)
}
