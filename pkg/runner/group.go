package runner

import (
	"iter"
	"path/filepath"
	"sort"

	"github.com/yaklabco/allowfix/pkg/clippy"
)

// Target is one diagnostic addressed to a line of a file.
type Target struct {
	Line       int
	Diagnostic clippy.Diagnostic
}

// FileGroup gathers the targets of one file.
type FileGroup struct {
	// Path is the root-joined path that is read and written.
	Path string

	// Reported is the path as the analyzer reported it.
	Reported string

	Targets []Target
}

// Group collects diagnostics per file, joining relative paths to root.
// Groups are returned in path order; targets keep stream order.
func Group(diagnostics iter.Seq[clippy.Diagnostic], root string) []FileGroup {
	index := make(map[string]int)
	var groups []FileGroup

	for diag := range diagnostics {
		loc := diag.Primary()
		if loc.File == "" {
			continue
		}

		path := loc.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}

		idx, ok := index[path]
		if !ok {
			idx = len(groups)
			index[path] = idx
			groups = append(groups, FileGroup{Path: path, Reported: loc.File})
		}
		groups[idx].Targets = append(groups[idx].Targets, Target{Line: loc.Line, Diagnostic: diag})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Path < groups[j].Path
	})
	return groups
}

// SortDescending orders targets by line, highest first. Targets on the same
// line keep their relative order.
func SortDescending(targets []Target) {
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Line > targets[j].Line
	})
}
