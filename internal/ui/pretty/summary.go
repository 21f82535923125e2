package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/allowfix/pkg/runner"
)

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "3 annotations in 2 files (5 diagnostics, 1 already present, 1 unresolved)".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats, dryRun bool) string {
	if stats.Diagnostics == 0 {
		msg := s.Success.Render("No matching diagnostics")
		if stats.Malformed > 0 {
			msg += s.Dim.Render(fmt.Sprintf(" (%s skipped)", plural(stats.Malformed, "malformed record", "malformed records")))
		}
		return msg + "\n"
	}

	verb := "added"
	if dryRun {
		verb = "to add"
	}

	var head string
	if stats.Inserted == 0 {
		head = s.Success.Render("Nothing to annotate")
	} else {
		files := stats.FilesModified
		if dryRun {
			files = stats.Files - stats.FilesSkipped
		}
		head = s.Inserted.Render(fmt.Sprintf("%s %s", plural(stats.Inserted, "annotation", "annotations"), verb)) +
			fmt.Sprintf(" in %s", plural(files, "file", "files"))
	}

	details := []string{plural(stats.Diagnostics, "diagnostic", "diagnostics")}
	if stats.Duplicates > 0 {
		details = append(details, fmt.Sprintf("%d already present", stats.Duplicates))
	}
	if stats.Unresolved > 0 {
		details = append(details, s.Unresolved.Render(fmt.Sprintf("%d unresolved", stats.Unresolved)))
	}
	if stats.Stale > 0 {
		details = append(details, s.Unresolved.Render(fmt.Sprintf("%d stale", stats.Stale)))
	}
	if stats.FilesSkipped > 0 {
		details = append(details, s.Skipped.Render(plural(stats.FilesSkipped, "file skipped", "files skipped")))
	}
	if stats.Malformed > 0 {
		details = append(details, plural(stats.Malformed, "malformed record", "malformed records"))
	}

	return head + s.Dim.Render(" (") + strings.Join(details, s.Dim.Render(", ")) + s.Dim.Render(")") + "\n"
}
