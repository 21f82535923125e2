// Package source provides the in-memory line buffer allowfix edits.
// Line numbers at the API are 1-based to match analyzer coordinates.
package source

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ErrLineOutOfRange is returned when a line number does not exist in the file.
var ErrLineOutOfRange = errors.New("line out of range")

// File is a mutable, fully loaded source file.
type File struct {
	// Path is the file path the content was read from.
	Path string

	// Mode is the permission mode to restore when writing back.
	Mode os.FileMode

	// EOL is the dominant line terminator of the original content. Inserted
	// lines use it.
	EOL string

	// TrailingEOL records whether the original content ended with a newline.
	TrailingEOL bool

	lines []string

	// eols[i] terminates lines[i]; the last entry is "" without TrailingEOL.
	eols []string
}

// Parse splits content into lines on "\n", stripping a "\r" that precedes
// it. Each line keeps its own terminator, so Bytes reproduces the input
// exactly, mixed line endings included, when nothing was inserted.
func Parse(path string, content []byte) *File {
	text := string(content)
	file := &File{Path: path, EOL: "\n"}
	if text == "" {
		return file
	}

	file.TrailingEOL = strings.HasSuffix(text, "\n")
	parts := strings.Split(text, "\n")
	if file.TrailingEOL {
		parts = parts[:len(parts)-1]
	}

	crlf := 0
	file.lines = make([]string, len(parts))
	file.eols = make([]string, len(parts))
	for i, part := range parts {
		switch {
		case i == len(parts)-1 && !file.TrailingEOL:
			file.lines[i] = part
		case strings.HasSuffix(part, "\r"):
			file.lines[i] = strings.TrimSuffix(part, "\r")
			file.eols[i] = "\r\n"
			crlf++
		default:
			file.lines[i] = part
			file.eols[i] = "\n"
		}
	}

	terminated := len(parts)
	if !file.TrailingEOL {
		terminated--
	}
	if crlf > terminated-crlf {
		file.EOL = "\r\n"
	}

	return file
}

// Len returns the number of lines.
func (f *File) Len() int {
	return len(f.lines)
}

// Lines returns the lines in order. The slice must not be modified.
func (f *File) Lines() []string {
	return f.lines
}

// Line returns line n (1-based). It returns "" for lines outside the file.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	return f.lines[n-1]
}

// Indent returns the leading whitespace of line n.
func (f *File) Indent(n int) string {
	return LeadingWhitespace(f.Line(n))
}

// Insert places text before line n, shifting line n and everything below it
// down by one. n may be Len()+1 to append.
func (f *File) Insert(n int, text string) error {
	if n < 1 || n > len(f.lines)+1 {
		return fmt.Errorf("%w: insert at %d in %d-line file", ErrLineOutOfRange, n, len(f.lines))
	}
	eol := f.EOL
	if n == len(f.lines)+1 && n > 1 && f.eols[n-2] == "" {
		// Appending after an unterminated last line: terminate it instead.
		f.eols[n-2] = f.EOL
		eol = ""
	}

	f.lines = slices.Insert(f.lines, n-1, text)
	f.eols = slices.Insert(f.eols, n-1, eol)
	return nil
}

// Bytes renders the buffer back to file content.
func (f *File) Bytes() []byte {
	if len(f.lines) == 0 {
		return nil
	}
	var out strings.Builder
	for i, line := range f.lines {
		out.WriteString(line)
		out.WriteString(f.eols[i])
	}
	return []byte(out.String())
}

// Clone returns an independent copy of the buffer.
func (f *File) Clone() *File {
	clone := *f
	clone.lines = slices.Clone(f.lines)
	clone.eols = slices.Clone(f.eols)
	return &clone
}

// LeadingWhitespace returns the run of spaces and tabs that starts line.
func LeadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
