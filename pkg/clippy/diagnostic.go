// Package clippy decodes the line-delimited JSON stream emitted by
// `cargo clippy --message-format json` into lint diagnostics.
package clippy

import "strings"

// Defaults for the lint category allowfix suppresses.
const (
	// DefaultReason is the record discriminator cargo uses for compiler output.
	DefaultReason = "compiler-message"

	// DefaultSignature is the rendered-message text of clippy::cast_possible_truncation
	// when a u64 is narrowed to usize.
	DefaultSignature = "casting `u64` to `usize` may truncate the value"
)

// Location is a file/line coordinate reported by the analyzer.
type Location struct {
	// File is the path as reported by cargo, relative to the crate root.
	File string `json:"file"`

	// Line is the 1-based line number.
	Line int `json:"line"`

	// Text is the source line the span starts on, as cargo saw it. Empty when
	// the stream carried no span text.
	Text string `json:"text,omitempty"`
}

// Diagnostic is a single relevant analyzer finding.
type Diagnostic struct {
	// Reason is the record discriminator (e.g. "compiler-message").
	Reason string `json:"reason"`

	// Rendered is the human-readable message as cargo printed it.
	Rendered string `json:"rendered"`

	// Level is the message level ("warning", "error", ...), if present.
	Level string `json:"level,omitempty"`

	// Code is the lint code (e.g. "clippy::cast_possible_truncation"), if present.
	Code string `json:"code,omitempty"`

	// Locations holds the first span of every child that carried spans, in order.
	// A decoded Diagnostic always has at least one location.
	Locations []Location `json:"locations"`
}

// Primary returns the location used for resolution: the first span of the
// first child that had any.
func (d Diagnostic) Primary() Location {
	if len(d.Locations) == 0 {
		return Location{}
	}
	return d.Locations[0]
}

// Filter selects the diagnostics of one lint category.
type Filter struct {
	// Reason must equal the record's reason field.
	Reason string

	// Signature must appear in the record's rendered message.
	Signature string
}

// DefaultFilter returns the filter for the default lint category.
func DefaultFilter() Filter {
	return Filter{
		Reason:    DefaultReason,
		Signature: DefaultSignature,
	}
}

// Match reports whether a record with the given reason and rendered message
// belongs to the filtered category.
func (f Filter) Match(reason, rendered string) bool {
	return reason == f.Reason && strings.Contains(rendered, f.Signature)
}
