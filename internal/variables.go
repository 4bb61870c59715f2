package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (

	// Name of the daemon, used for log groups and directory names.
	Name = "fsguardd"

	// Name of the client binary.
	ClientName = "fsguard"

	// Marker for values not injected at build time.
	undefined = "(undefined)"

	// Version string reported by non-pipeline builds.
	localBuild = "(local)"
)

var (
	version   = "" // Release version, e.g. "0.4.1". Set via ldflags.
	gitCommit = "" // Commit the binary was built from. Set via ldflags.

	rawQuiet   = "false" // Default for quiet mode.
	rawDebug   = "false" // Default for debug mode.
	rawVerbose = "false" // Default for verbose mode.
)

// Returns the release version without a leading "v", or "(undefined)".
func Version() string {
	v := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
	if v == "" {
		return undefined
	}
	return v
}

// Returns the git commit the binary was built from, or "(undefined)".
func GitCommit() string {
	if c := strings.TrimSpace(gitCommit); c != "" {
		return c
	}
	return undefined
}

// Whether the binary was built outside the release pipeline.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" || strings.TrimSpace(gitCommit) == ""
}

// Returns "<version> <commit> [<os>/<arch>]", or "(local)" for local builds.
func VersionString() string {
	if IsLocal() {
		return localBuild
	}
	return fmt.Sprintf("%s %s [%s/%s]", Version(), GitCommit(), runtime.GOOS, runtime.GOARCH)
}
