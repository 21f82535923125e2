// Package langdetect decides whether a diagnostic's file is Rust source
// before allowfix edits it. Detection is delegated to go-enry.
package langdetect

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Rust is the go-enry name of the Rust language.
const Rust = "Rust"

// unknown is returned when go-enry cannot name the language.
const unknown = "unknown"

// Detect returns the go-enry language name for a file, or "unknown".
func Detect(path string, content []byte) string {
	if lang := enry.GetLanguage(filepath.Base(path), content); lang != "" {
		return lang
	}
	return unknown
}

// IsRust reports whether path holds Rust source. The .rs extension is shared
// with RenderScript and XML, so for .rs files only a content heuristic naming
// another language rules Rust out.
func IsRust(path string, content []byte) bool {
	if !strings.EqualFold(filepath.Ext(path), ".rs") {
		return Detect(path, content) == Rust
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return true
	}
	langs := enry.GetLanguagesByContent(filepath.Base(path), content, nil)
	return len(langs) == 0 || slices.Contains(langs, Rust)
}
