package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/allowfix/pkg/runner"
)

// FormatFileHeader formats the heading printed above a file's annotations.
func (s *Styles) FormatFileHeader(path string, outcome runner.FileOutcome) string {
	var counts []string
	if outcome.Inserted > 0 {
		counts = append(counts, s.Inserted.Render(plural(outcome.Inserted, "annotation", "annotations")))
	}
	if outcome.Duplicates > 0 {
		counts = append(counts, s.Duplicate.Render(strconv.Itoa(outcome.Duplicates)+" already present"))
	}
	if outcome.Unresolved > 0 {
		counts = append(counts, s.Unresolved.Render(strconv.Itoa(outcome.Unresolved)+" unresolved"))
	}
	if outcome.Stale > 0 {
		counts = append(counts, s.Unresolved.Render(strconv.Itoa(outcome.Stale)+" stale"))
	}
	if len(counts) == 0 {
		return s.FilePath.Render(path)
	}
	return s.FilePath.Render(path) + " " + s.Dim.Render("(") + strings.Join(counts, s.Dim.Render(", ")) + s.Dim.Render(")")
}

// FormatAnnotation formats one inserted annotation.
// Example: "  src/frame.rs:10  function  covers line 11".
func (s *Styles) FormatAnnotation(path string, a runner.Annotation) string {
	lines := make([]string, 0, len(a.DiagnosticLines))
	for _, l := range a.DiagnosticLines {
		lines = append(lines, strconv.Itoa(l))
	}
	word := "line"
	if len(lines) > 1 {
		word = "lines"
	}

	return fmt.Sprintf("  %s  %s  %s\n",
		s.Location.Render(fmt.Sprintf("%s:%d", path, a.Line)),
		s.Kind.Render(string(a.Kind)),
		s.Dim.Render("covers "+word+" "+strings.Join(lines, ", ")),
	)
}

// FormatSkipped formats a file that was not edited.
func (s *Styles) FormatSkipped(path, reason string) string {
	return fmt.Sprintf("%s: %s\n", s.FilePath.Render(path), s.Skipped.Render("skipped: "+reason))
}

// FormatError formats a file that aborted the run.
func (s *Styles) FormatError(path string, err error) string {
	return fmt.Sprintf("%s: %s\n", s.FilePath.Render(path), s.Error.Render(fmt.Sprintf("error: %v", err)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
