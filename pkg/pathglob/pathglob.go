// Package pathglob matches slash-separated paths against gobwas/glob
// patterns. `**` crosses directory boundaries and `*` does not.
package pathglob

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

type pattern struct {
	text string
	glob glob.Glob

	// rooted matches the pattern with a leading "**/" removed, so that
	// "**/*.rs" also matches "lib.rs".
	rooted glob.Glob
}

// Set is a compiled list of patterns. The zero Set matches nothing.
type Set struct {
	patterns []pattern
}

// Compile compiles patterns. The first invalid pattern is reported.
func Compile(patterns []string) (*Set, error) {
	set := &Set{}
	for _, text := range patterns {
		g, err := glob.Compile(text, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", text, err)
		}
		p := pattern{text: text, glob: g}
		if rest, ok := strings.CutPrefix(text, "**/"); ok {
			if p.rooted, err = glob.Compile(rest, '/'); err != nil {
				return nil, fmt.Errorf("compile glob %q: %w", text, err)
			}
		}
		set.patterns = append(set.patterns, p)
	}
	return set, nil
}

// MustCompile is Compile that panics on error. For literal patterns.
func MustCompile(patterns ...string) *Set {
	set, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return set
}

// Len returns the number of patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Match reports whether name, or any directory containing it, matches one of
// the patterns. Separators are normalised to '/'.
func (s *Set) Match(name string) bool {
	if s.Len() == 0 {
		return false
	}

	name = filepath.ToSlash(filepath.Clean(name))
	for candidate := name; candidate != "." && candidate != "/" && candidate != ""; candidate = path.Dir(candidate) {
		if s.matchOne(candidate) {
			return true
		}
	}
	return false
}

func (s *Set) matchOne(name string) bool {
	for _, p := range s.patterns {
		if p.glob.Match(name) || p.glob.Match(name+"/**") {
			return true
		}
		if p.rooted != nil && !strings.Contains(name, "/") && p.rooted.Match(name) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.patterns))
	for _, p := range s.patterns {
		out = append(out, p.text)
	}
	return out
}
