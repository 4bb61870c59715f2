// Provides platform-appropriate paths for the daemon.
//
// Runtime and state paths follow XDG conventions on Linux and platform-native
// conventions elsewhere, with "fsguardd" as the subdirectory under each base.
// The fallback quarantine directory is the one path that is deliberately
// relative to the working directory.
package paths
