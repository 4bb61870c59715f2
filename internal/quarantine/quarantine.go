package quarantine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"github.com/opencontainers/go-digest"
)

// Decides what happens when the quarantine directory already holds a file
// with the same name.
type Policy string

const (
	Overwrite Policy = "overwrite" // Replace the existing file.
	Rename    Policy = "rename"    // Store under "<name>.<n>" with the first free n.
	Reject    Policy = "reject"    // Fail and leave both files in place.
)

// Parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case Overwrite, Rename, Reject:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrPolicy, s)
	}
}

// Describes a completed move.
type Record struct {
	Source      string        // Original path, as given.
	Destination string        // Path inside the quarantine directory.
	Digest      digest.Digest // Content digest taken before the move.
}

// Moves files into a quarantine directory.
type Vault struct {
	dir    string
	policy Policy
	log    *slog.Logger
	mu     sync.Mutex // Serializes destination selection and the move itself.
}

// Creates a vault storing files in dir, which must already exist.
func New(dir string, policy Policy, log *slog.Logger) *Vault {
	return &Vault{dir: dir, policy: policy, log: log.With("component", "quarantine")}
}

// Moves the regular file at path into the quarantine directory, keeping its
// base name.
//
// Returns [ErrNoSuchFile] if path is not a regular file, and
// [ErrCollision] under the [Reject] policy when the name is taken. Moves
// across filesystems copy the file, verify the copy against the source
// digest, then remove the source.
func (v *Vault) Move(path string) (*Record, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchFile, path)
	}

	dgst, err := fileDigest(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMove, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dest, err := v.destination(filepath.Base(path))
	if err != nil {
		return nil, err
	}

	if err := move(path, dest, dgst, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMove, err)
	}

	v.log.Debug("moved", "source", path, "destination", dest)

	return &Record{Source: path, Destination: dest, Digest: dgst}, nil
}

// Picks the path inside the quarantine directory for a file called name.
func (v *Vault) destination(name string) (string, error) {
	dest := filepath.Join(v.dir, name)

	switch v.policy {
	case Rename:
		for n := 1; exists(dest); n++ {
			dest = filepath.Join(v.dir, name+"."+strconv.Itoa(n))
		}
	case Reject:
		if exists(dest) {
			return "", fmt.Errorf("%w: %s", ErrCollision, dest)
		}
	}

	return dest, nil
}

// Renames src to dest, copying when they live on different filesystems.
func move(src, dest string, dgst digest.Digest, perm os.FileMode) error {
	err := os.Rename(src, dest)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copyVerified(src, dest, dgst, perm); err != nil {
		return err
	}
	return os.Remove(src)
}

// Copies src to dest and checks that the bytes written match dgst.
//
// A copy that fails verification is removed.
func copyVerified(src, dest string, dgst digest.Digest, perm os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(dest)
		}
	}()

	verifier := dgst.Verifier()
	if _, err := io.Copy(io.MultiWriter(out, verifier), in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if !verifier.Verified() {
		return fmt.Errorf("%w: %s", ErrVerify, dgst)
	}
	return nil
}

// Computes the canonical digest of the file at path.
func fileDigest(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return digest.FromReader(f)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
