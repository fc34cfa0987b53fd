package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultPrefixLength is the number of hex characters used in archive names.
const DefaultPrefixLength = 10

// MinPrefixLength and MaxPrefixLength bound the configurable prefix length.
const (
	MinPrefixLength = 6
	MaxPrefixLength = sha256.Size * 2
)

// Digest is the SHA-256 of a file's content.
type Digest [sha256.Size]byte

// Sum computes the digest of data.
func Sum(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// SumReader streams r through SHA-256.
func SumReader(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, fmt.Errorf("fingerprint: read: %w", err)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// SumFile computes the digest of the file at path without loading it whole.
func SumFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("fingerprint: %w", err)
	}
	defer f.Close()
	return SumReader(f)
}

// String returns the full lowercase hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Prefix returns the first n hex characters. n is clamped to
// [MinPrefixLength, MaxPrefixLength].
func (d Digest) Prefix(n int) string {
	return d.String()[:ClampPrefixLength(n)]
}

// IsZero reports whether d is the zero value.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ClampPrefixLength forces n into the supported range.
func ClampPrefixLength(n int) int {
	switch {
	case n < MinPrefixLength:
		return MinPrefixLength
	case n > MaxPrefixLength:
		return MaxPrefixLength
	}
	return n
}

// ValidPrefix reports whether s looks like a digest prefix: lowercase hex
// within the supported length range.
func ValidPrefix(s string) bool {
	if len(s) < MinPrefixLength || len(s) > MaxPrefixLength {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f')
	}) < 0
}
