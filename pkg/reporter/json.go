package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yaklabco/allowfix/pkg/runner"
)

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version string           `json:"version"`
	DryRun  bool             `json:"dryRun"`
	State   string           `json:"state"`
	Files   []JSONFileResult `json:"files"`
	Summary JSONSummary      `json:"summary"`
}

// JSONFileResult represents a single file's outcome.
type JSONFileResult struct {
	Path        string           `json:"path"`
	State       string           `json:"state"`
	Reason      string           `json:"reason,omitempty"`
	Diagnostics int              `json:"diagnostics"`
	Duplicates  int              `json:"duplicates"`
	Unresolved  int              `json:"unresolved"`
	Stale       int              `json:"stale"`
	Annotations []JSONAnnotation `json:"annotations"`
	Backup      string           `json:"backup,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// JSONAnnotation represents one inserted attribute.
type JSONAnnotation struct {
	Line            int    `json:"line"`
	Kind            string `json:"kind"`
	DiagnosticLines []int  `json:"diagnosticLines"`
}

// JSONSummary contains aggregate statistics.
type JSONSummary struct {
	Files         int `json:"files"`
	FilesModified int `json:"filesModified"`
	FilesSkipped  int `json:"filesSkipped"`
	Diagnostics   int `json:"diagnostics"`
	Inserted      int `json:"inserted"`
	Duplicates    int `json:"duplicates"`
	Unresolved    int `json:"unresolved"`
	Stale         int `json:"stale"`
	Malformed     int `json:"malformed"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}

	return output.Summary.Inserted, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version: "1.0.0",
		DryRun:  r.opts.DryRun,
		Files:   make([]JSONFileResult, 0),
	}

	if result == nil {
		return output
	}

	output.State = string(result.State)
	output.Summary = JSONSummary(result.Stats)

	if len(result.Files) > 0 {
		output.Files = make([]JSONFileResult, 0, len(result.Files))
	}

	for _, file := range result.Files {
		fileResult := JSONFileResult{
			Path:        displayPath(file.Path, r.opts.WorkingDir),
			State:       string(file.State),
			Reason:      file.Reason,
			Diagnostics: file.Diagnostics,
			Duplicates:  file.Duplicates,
			Unresolved:  file.Unresolved,
			Stale:       file.Stale,
			Annotations: make([]JSONAnnotation, 0, len(file.Annotations)),
			Backup:      file.Backup,
		}
		if file.Error != nil {
			fileResult.Error = file.Error.Error()
		}

		for _, a := range file.Annotations {
			fileResult.Annotations = append(fileResult.Annotations, JSONAnnotation{
				Line:            a.Line,
				Kind:            string(a.Kind),
				DiagnosticLines: a.DiagnosticLines,
			})
		}

		output.Files = append(output.Files, fileResult)
	}

	return output
}
