// Package annotate inserts suppression attributes above resolved constructs.
package annotate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yaklabco/allowfix/pkg/resolve"
	"github.com/yaklabco/allowfix/pkg/source"
)

// DefaultAnnotation suppresses the u64-to-usize truncation lint.
const DefaultAnnotation = "#[allow(clippy::cast_possible_truncation)]"

// ErrOutOfRange is returned when an insertion target is not a line of the file.
var ErrOutOfRange = errors.New("insertion target out of range")

// Inserter places an annotation line above a target line.
type Inserter struct {
	// Annotation is the attribute text, without indentation.
	Annotation string
}

// New returns an Inserter for annotation. An empty annotation uses
// DefaultAnnotation.
func New(annotation string) *Inserter {
	if strings.TrimSpace(annotation) == "" {
		annotation = DefaultAnnotation
	}
	return &Inserter{Annotation: strings.TrimSpace(annotation)}
}

// Insert adds the annotation above point.Line with the target's indentation.
// It returns false without touching the file when the annotation already sits
// in the attribute block directly above the target.
func (i *Inserter) Insert(file *source.File, point resolve.InsertionPoint) (bool, error) {
	return i.InsertAt(file, point.Line)
}

// InsertRange annotates the start line of r.
func (i *Inserter) InsertRange(file *source.File, r resolve.ConstructRange) (bool, error) {
	return i.InsertAt(file, r.Start)
}

// InsertAt annotates line.
func (i *Inserter) InsertAt(file *source.File, line int) (bool, error) {
	if line < 1 || line > file.Len() {
		return false, fmt.Errorf("%w: line %d of %s (%d lines)", ErrOutOfRange, line, file.Path, file.Len())
	}

	if i.Present(file, line) {
		return false, nil
	}

	if err := file.Insert(line, file.Indent(line)+i.Annotation); err != nil {
		return false, fmt.Errorf("insert annotation: %w", err)
	}
	return true, nil
}

// Present reports whether the annotation already precedes line. The lines
// above are walked while they are attributes or doc comments; an attribute
// spread over several lines is crossed by tracking its bracket depth.
func (i *Inserter) Present(file *source.File, line int) bool {
	want := strings.TrimSpace(i.Annotation)
	depth := 0

	for n := line - 1; n >= 1; n-- {
		prev := strings.TrimSpace(file.Line(n))
		net := strings.Count(prev, "[") - strings.Count(prev, "]")

		if depth > 0 {
			depth -= net
			switch {
			case depth < 0:
				return false
			case depth == 0 && !strings.HasPrefix(prev, "#["):
				return false
			}
			continue
		}

		switch {
		case prev == want:
			return true
		case strings.HasPrefix(prev, "///"):
		case strings.HasPrefix(prev, "#[") && net >= 0:
			// Single-line attribute, or the opening line of one whose
			// continuation was already crossed.
		case net < 0 && strings.HasSuffix(prev, "]"):
			depth = -net
		default:
			return false
		}
	}
	return false
}
