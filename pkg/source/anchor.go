package source

import (
	"fmt"
	"strings"

	"github.com/minio/highwayhash"
)

// anchorKey is the fixed highwayhash key. Anchors only need to be stable
// within one run, not secret.
var anchorKey = []byte("allowfix-anchor-key-0123456789AB")

// Anchor pins an insertion target to the content of its header line, so a
// target can be re-checked after earlier edits shifted line numbers.
type Anchor struct {
	// Line is the 1-based line the anchor was taken at.
	Line int

	// Hash is the highwayhash-64 of the trimmed line content.
	Hash uint64
}

// HashLine returns the anchor hash of a line, ignoring surrounding whitespace.
func HashLine(line string) (uint64, error) {
	hash, err := highwayhash.New64(anchorKey)
	if err != nil {
		return 0, fmt.Errorf("init highwayhash: %w", err)
	}
	if _, err := hash.Write([]byte(strings.TrimSpace(line))); err != nil {
		return 0, fmt.Errorf("hash line: %w", err)
	}
	return hash.Sum64(), nil
}

// AnchorAt takes an anchor at line n.
func (f *File) AnchorAt(n int) (Anchor, error) {
	if n < 1 || n > f.Len() {
		return Anchor{}, fmt.Errorf("%w: anchor at %d in %d-line file", ErrLineOutOfRange, n, f.Len())
	}
	sum, err := HashLine(f.Line(n))
	if err != nil {
		return Anchor{}, err
	}
	return Anchor{Line: n, Hash: sum}, nil
}

// Verify reports whether the anchored line still holds the content it was
// taken from. The zero Anchor always verifies.
func (f *File) Verify(anchor Anchor) (bool, error) {
	if anchor == (Anchor{}) {
		return true, nil
	}
	if anchor.Line < 1 || anchor.Line > f.Len() {
		return false, nil
	}
	sum, err := HashLine(f.Line(anchor.Line))
	if err != nil {
		return false, err
	}
	return sum == anchor.Hash, nil
}
