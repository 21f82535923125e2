// Package resolve maps a diagnostic's line number to the construct an
// annotation should be placed above.
//
// Three strategies implement Resolver:
//   - Structural: header regexes plus brace counting, no parser.
//   - ASTDump: scrapes the span notation of `rustc -Z unpretty=ast-tree`.
//   - TreeSitter: queries a tree-sitter-rust syntax tree.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaklabco/allowfix/pkg/source"
)

// ErrParse indicates the source could not be parsed at all.
var ErrParse = errors.New("parse failed")

// Kind is the construct category of a resolved range.
type Kind string

const (
	KindFunction  Kind = "function"
	KindType      Kind = "type-definition"
	KindStatic    Kind = "static-declaration"
	KindStatement Kind = "statement"
)

// ConstructRange is an inclusive 1-based line range of one construct.
type ConstructRange struct {
	Kind  Kind
	Start int
	End   int
}

// Span returns End - Start.
func (r ConstructRange) Span() int {
	return r.End - r.Start
}

// Contains reports whether line falls inside the range.
func (r ConstructRange) Contains(line int) bool {
	return r.Start <= line && line <= r.End
}

// InsertionPoint is where an annotation goes and the indentation to copy.
type InsertionPoint struct {
	// Line is the 1-based line the annotation is inserted before.
	Line int

	// Indent is the leading whitespace of Line.
	Indent string

	// Kind is the construct kind that was resolved.
	Kind Kind

	// Anchor pins Line to its content at resolution time.
	Anchor source.Anchor
}

// Resolver finds the insertion point for a diagnostic at line.
//
// ok is false when no enclosing construct exists; that is not an error.
// A non-nil error is fatal to the run (for example a failed subprocess).
type Resolver interface {
	Resolve(ctx context.Context, file *source.File, line int) (point InsertionPoint, ok bool, err error)
}

// Invalidator is implemented by resolvers that cache per-file state which
// goes stale once the file is rewritten.
type Invalidator interface {
	Invalidate(path string)
}

// pointAt builds an InsertionPoint for line in file.
func pointAt(file *source.File, line int, kind Kind) (InsertionPoint, error) {
	anchor, err := file.AnchorAt(line)
	if err != nil {
		return InsertionPoint{}, fmt.Errorf("anchor insertion point: %w", err)
	}
	return InsertionPoint{
		Line:   line,
		Indent: file.Indent(line),
		Kind:   kind,
		Anchor: anchor,
	}, nil
}
