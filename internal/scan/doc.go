// Package scan finds byte signatures in files on the local filesystem.
//
// A signature arrives hex-encoded. The [Scanner] enforces a size limit on the
// encoded form, decodes it, reads the whole target file into memory and
// reports every offset where the signature starts, overlapping matches
// included.
//
// Example usage:
//
//	s := scan.New(1024)
//	offsets, err := s.Check("/srv/upload/a.bin", "774066")
//	if errors.Is(err, scan.ErrNoSuchFile) {
//	    ...
//	}
package scan
