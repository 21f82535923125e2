package runner

import (
	"github.com/yaklabco/allowfix/pkg/fix"
	"github.com/yaklabco/allowfix/pkg/resolve"
)

// State is the progress of a file, or of a whole run.
type State string

// File states run Loading → Resolving → Inserting and end in Persisted,
// Planned (dry run), Unchanged or Skipped. A run ends Persisted or Aborted.
const (
	StateLoading   State = "loading"
	StateResolving State = "resolving"
	StateInserting State = "inserting"
	StatePersisted State = "persisted"
	StatePlanned   State = "planned"
	StateUnchanged State = "unchanged"
	StateSkipped   State = "skipped"
	StateAborted   State = "aborted"
)

// Annotation records one inserted attribute.
type Annotation struct {
	// Line is the line the annotation now occupies in the original numbering,
	// i.e. the header line it was placed above.
	Line int

	// Kind is the construct that was annotated.
	Kind resolve.Kind

	// DiagnosticLines are the reported lines this annotation covers.
	DiagnosticLines []int
}

// FileOutcome is what happened to one file.
type FileOutcome struct {
	Path  string
	State State

	// Reason explains a Skipped state.
	Reason string

	Diagnostics int
	Inserted    int
	Duplicates  int
	Unresolved  int

	// Stale counts diagnostics whose reported source text no longer matches
	// the line they point at. They are not annotated.
	Stale int

	Annotations []Annotation

	// Diff holds the inserted lines, for dry runs and diff output.
	Diff *fix.Diff

	// Backup is the backup path written before persisting, if any.
	Backup string

	// Error is set when the file aborted the run.
	Error error
}

// Stats aggregates a run.
type Stats struct {
	Files         int
	FilesModified int
	FilesSkipped  int
	Diagnostics   int
	Inserted      int
	Duplicates    int
	Unresolved    int
	Stale         int

	// Malformed counts stream records that were skipped while decoding. It is
	// filled in by the caller that owns the decoder.
	Malformed int
}

// Result is the outcome of a run. Files are in path order.
type Result struct {
	State State
	Files []FileOutcome
	Stats Stats
}

// Changed reports whether the run inserted (or would insert) anything.
func (r *Result) Changed() bool {
	return r != nil && r.Stats.Inserted > 0
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	r.Stats.Files++
	r.Stats.Diagnostics += outcome.Diagnostics
	r.Stats.Inserted += outcome.Inserted
	r.Stats.Duplicates += outcome.Duplicates
	r.Stats.Unresolved += outcome.Unresolved
	r.Stats.Stale += outcome.Stale

	switch outcome.State {
	case StatePersisted:
		r.Stats.FilesModified++
	case StateSkipped:
		r.Stats.FilesSkipped++
	}
}
