package pretty

import (
	"fmt"

	"github.com/yaklabco/allowfix/pkg/check"
)

// FormatTarget formats the outcome of one target build.
// Example: "aarch64-unknown-none: Failed (doc)".
func (s *Styles) FormatTarget(r check.TargetResult) string {
	if r.Status == check.StatusOk {
		return fmt.Sprintf("%s: %s\n", s.Bold.Render(r.Target), s.Success.Render(string(r.Status)))
	}
	return fmt.Sprintf("%s: %s %s\n",
		s.Bold.Render(r.Target),
		s.Failure.Render(string(r.Status)),
		s.Dim.Render("("+r.Step+")"),
	)
}

// FormatSuppression formats one suppression found by the scan.
func (s *Styles) FormatSuppression(sup check.Suppression) string {
	return fmt.Sprintf("  %s  %s\n",
		s.Location.Render(fmt.Sprintf("%s:%d", sup.Path, sup.Line)),
		s.Code.Render(sup.Text),
	)
}

// FormatCheckSummary formats the closing line of a check run.
func (s *Styles) FormatCheckSummary(report *check.Report) string {
	failed := 0
	for _, t := range report.Targets {
		if t.Status == check.StatusFailed {
			failed++
		}
	}

	targets := plural(len(report.Targets), "target", "targets")
	suppressions := plural(len(report.Suppressions), "suppression", "suppressions")
	if failed > 0 {
		return s.Failure.Render(fmt.Sprintf("%d of %s failed", failed, targets)) +
			s.Dim.Render(", "+suppressions+" found") + "\n"
	}
	return s.Success.Render(targets+" ok") + s.Dim.Render(", "+suppressions+" found") + "\n"
}
