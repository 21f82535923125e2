package reporter

import (
	"bufio"
	"context"
	"fmt"
	"sort"

	"github.com/yaklabco/allowfix/internal/ui/pretty"
	"github.com/yaklabco/allowfix/pkg/runner"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Files) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(statsOf(result), r.opts.DryRun))
		}
		return 0, nil
	}

	var total int
	for _, file := range result.Files {
		path := displayPath(file.Path, r.opts.WorkingDir)

		switch {
		case file.Error != nil:
			fmt.Fprint(r.bw, r.styles.FormatError(path, file.Error))
			continue
		case file.State == runner.StateSkipped:
			fmt.Fprint(r.bw, r.styles.FormatSkipped(path, file.Reason))
			continue
		case file.Inserted == 0 && file.Unresolved == 0 && file.Stale == 0:
			continue
		}

		fmt.Fprintln(r.bw, r.styles.FormatFileHeader(path, file))

		annotations := append([]runner.Annotation(nil), file.Annotations...)
		sort.Slice(annotations, func(i, j int) bool {
			return annotations[i].Line < annotations[j].Line
		})
		for _, a := range annotations {
			fmt.Fprint(r.bw, r.styles.FormatAnnotation(path, a))
			total++
		}
		if file.Backup != "" {
			fmt.Fprintln(r.bw, r.styles.Dim.Render("  backup: "+displayPath(file.Backup, r.opts.WorkingDir)))
		}

		fmt.Fprintln(r.bw)
	}

	if r.opts.ShowSummary {
		fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats, r.opts.DryRun))
	}

	return total, nil
}

func statsOf(result *runner.Result) runner.Stats {
	if result == nil {
		return runner.Stats{}
	}
	return result.Stats
}
