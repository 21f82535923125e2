package clippy

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
)

// maxRecordSize bounds a single JSON record. Rendered messages for large
// macro expansions can run to several megabytes.
const maxRecordSize = 64 * 1024 * 1024

var (
	// ErrMalformed marks a record that could not be decoded or lacks a required field.
	ErrMalformed = errors.New("malformed diagnostic record")

	// ErrFiltered marks a well-formed record outside the requested lint category.
	ErrFiltered = errors.New("diagnostic filtered out")
)

type wireRecord struct {
	Reason  string       `json:"reason"`
	Message *wireMessage `json:"message"`
}

type wireMessage struct {
	Rendered *string     `json:"rendered"`
	Level    string      `json:"level"`
	Code     *wireCode   `json:"code"`
	Children []wireChild `json:"children"`
}

type wireCode struct {
	Code string `json:"code"`
}

type wireChild struct {
	Spans []wireSpan `json:"spans"`
}

type wireSpan struct {
	FileName  string         `json:"file_name"`
	LineStart int            `json:"line_start"`
	Text      []wireSpanText `json:"text"`
}

type wireSpanText struct {
	Text string `json:"text"`
}

// ParseRecord decodes one stream line. It returns ErrFiltered for records of
// other categories and ErrMalformed for records that cannot be used.
func ParseRecord(line []byte, filter Filter) (Diagnostic, error) {
	var rec wireRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Diagnostic{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if rec.Reason == "" {
		return Diagnostic{}, fmt.Errorf("%w: missing reason", ErrMalformed)
	}
	if rec.Reason != filter.Reason {
		return Diagnostic{}, ErrFiltered
	}
	if rec.Message == nil || rec.Message.Rendered == nil {
		return Diagnostic{}, fmt.Errorf("%w: missing message.rendered", ErrMalformed)
	}
	if !filter.Match(rec.Reason, *rec.Message.Rendered) {
		return Diagnostic{}, ErrFiltered
	}

	diag := Diagnostic{
		Reason:   rec.Reason,
		Rendered: *rec.Message.Rendered,
		Level:    rec.Message.Level,
	}
	if rec.Message.Code != nil {
		diag.Code = rec.Message.Code.Code
	}

	for _, child := range rec.Message.Children {
		if len(child.Spans) == 0 {
			continue
		}
		span := child.Spans[0]
		if span.FileName == "" || span.LineStart <= 0 {
			if len(diag.Locations) == 0 {
				return Diagnostic{}, fmt.Errorf("%w: first span lacks file_name or line_start", ErrMalformed)
			}
			continue
		}
		loc := Location{File: span.FileName, Line: span.LineStart}
		if len(span.Text) > 0 {
			loc.Text = span.Text[0].Text
		}
		diag.Locations = append(diag.Locations, loc)
	}
	if len(diag.Locations) == 0 {
		return Diagnostic{}, fmt.Errorf("%w: no child span", ErrMalformed)
	}

	return diag, nil
}

// Decoder reads a diagnostic stream lazily. It is single-pass: the sequence
// returned by Diagnostics can be ranged over once.
type Decoder struct {
	scanner *bufio.Scanner
	filter  Filter
	skipped int
	err     error
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, filter Filter) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	return &Decoder{
		scanner: scanner,
		filter:  filter,
	}
}

// Diagnostics yields every relevant diagnostic in stream order.
// Malformed records are counted and skipped; read errors stop the sequence
// and are available from Err.
func (d *Decoder) Diagnostics() iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		for d.scanner.Scan() {
			line := bytes.TrimSpace(d.scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			diag, err := ParseRecord(line, d.filter)
			switch {
			case errors.Is(err, ErrFiltered):
				continue
			case err != nil:
				d.skipped++
				continue
			}

			if !yield(diag) {
				return
			}
		}
		if err := d.scanner.Err(); err != nil {
			d.err = fmt.Errorf("read diagnostic stream: %w", err)
		}
	}
}

// Skipped returns the number of malformed records seen so far.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// Err returns the first read error, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Collect drains r and returns the relevant diagnostics and the number of
// malformed records skipped.
func Collect(r io.Reader, filter Filter) ([]Diagnostic, int, error) {
	dec := NewDecoder(r, filter)
	var out []Diagnostic
	for diag := range dec.Diagnostics() {
		out = append(out, diag)
	}
	return out, dec.Skipped(), dec.Err()
}
