package scan

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
)

// Signature size limit, in KiB of decoded bytes, used when none is configured.
const DefaultMaxSignatureKB = 1024

// Searches files for byte signatures.
type Scanner struct {
	maxHexLen int // Longest accepted hex-encoded signature, in characters.
}

// Creates a scanner accepting signatures of up to maxSignatureKB KiB.
//
// Non-positive sizes fall back to [DefaultMaxSignatureKB].
func New(maxSignatureKB int) *Scanner {
	if maxSignatureKB <= 0 {
		maxSignatureKB = DefaultMaxSignatureKB
	}
	return &Scanner{maxHexLen: 2 * maxSignatureKB * 1024}
}

// Returns every offset at which the hex-encoded signature occurs in the
// file at path.
//
// Checks happen in order: the file must be a regular file
// ([ErrNoSuchFile]), the signature must fit the size limit
// ([ErrTooBigSignature]) and must be valid hex ([ErrNotASignature]). Errors reading the file are returned as-is.
func (s *Scanner) Check(path, signature string) ([]int, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchFile, path)
	}

	if len(signature) > s.maxHexLen {
		return nil, fmt.Errorf("%w: %d of %d hex characters", ErrTooBigSignature, len(signature), s.maxHexLen)
	}

	sig, err := Decode(signature)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Offsets(data, sig), nil
}

// Decodes a hex-encoded signature.
//
// The encoding is strict: an even number of hex digits and no separators.
// The empty string decodes to an empty signature.
func Decode(signature string) ([]byte, error) {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotASignature, err)
	}
	return sig, nil
}

// Returns the ascending start offsets of every occurrence of sig in data,
// overlapping occurrences included.
//
// The result is never nil. An empty sig matches at every offset from 0 to
// len(data) inclusive.
func Offsets(data, sig []byte) []int {
	offsets := []int{}

	for base := 0; base <= len(data); {
		i := bytes.Index(data[base:], sig)
		if i < 0 {
			break
		}
		offsets = append(offsets, base+i)
		base += i + 1
	}
	return offsets
}
