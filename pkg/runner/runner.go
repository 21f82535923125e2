package runner

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/allowfix/internal/logging"
	"github.com/yaklabco/allowfix/pkg/annotate"
	"github.com/yaklabco/allowfix/pkg/clippy"
	"github.com/yaklabco/allowfix/pkg/fix"
	"github.com/yaklabco/allowfix/pkg/fsutil"
	"github.com/yaklabco/allowfix/pkg/langdetect"
	"github.com/yaklabco/allowfix/pkg/pathglob"
	"github.com/yaklabco/allowfix/pkg/resolve"
	"github.com/yaklabco/allowfix/pkg/source"
)

// Sentinel errors for error categorization via errors.Is.
var (
	// ErrInvalidLine means a diagnostic points past the end of its file,
	// which happens when the analyzer ran against stale sources.
	ErrInvalidLine = errors.New("diagnostic line beyond end of file")

	// ErrWriteFailure wraps any failure to persist an edited file.
	ErrWriteFailure = errors.New("write failed")
)

// InvalidLineError reports the diagnostic that failed the line-count check.
type InvalidLineError struct {
	Path  string
	Line  int
	Lines int
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("%s:%d: %s (file has %d lines)", e.Path, e.Line, ErrInvalidLine, e.Lines)
}

func (e *InvalidLineError) Unwrap() error {
	return ErrInvalidLine
}

// Runner resolves and annotates diagnostics. Files are processed one at a
// time, in path order.
type Runner struct {
	Resolver resolve.Resolver
	Inserter *annotate.Inserter
	Options  Options
}

// New creates a Runner. A nil inserter uses the default annotation.
func New(resolver resolve.Resolver, inserter *annotate.Inserter, opts Options) *Runner {
	if inserter == nil {
		inserter = annotate.New("")
	}
	return &Runner{Resolver: resolver, Inserter: inserter, Options: opts}
}

// Run consumes diagnostics and annotates every file they point at.
//
// An invalid line, a resolver failure (such as a failed AST dump) or a write
// failure aborts the run. Files already persisted stay persisted; the file
// that failed is never written.
func (r *Runner) Run(ctx context.Context, diagnostics iter.Seq[clippy.Diagnostic]) (*Result, error) {
	ignore, err := pathglob.Compile(r.Options.Ignore)
	if err != nil {
		return nil, fmt.Errorf("ignore patterns: %w", err)
	}

	logger := logging.FromContext(ctx)
	result := &Result{State: StatePersisted}

	for _, group := range Group(diagnostics, r.Options.effectiveRoot()) {
		if err := ctx.Err(); err != nil {
			result.State = StateAborted
			return result, fmt.Errorf("run cancelled: %w", err)
		}

		if ignore.Match(group.Reported) || ignore.Match(group.Path) {
			logger.Warn("skipping ignored file", logging.FieldPath, group.Path)
			result.accumulate(FileOutcome{
				Path:        group.Path,
				State:       StateSkipped,
				Reason:      "ignored",
				Diagnostics: len(group.Targets),
			})
			continue
		}

		outcome, err := r.processFile(ctx, group)
		if err != nil {
			outcome.State = StateAborted
			outcome.Error = err
			result.accumulate(outcome)
			result.State = StateAborted
			return result, err
		}
		result.accumulate(outcome)
	}

	return result, nil
}

// planned is a resolved insertion point with the diagnostics it covers.
type planned struct {
	point resolve.InsertionPoint
	lines []int
}

func (r *Runner) processFile(ctx context.Context, group FileGroup) (FileOutcome, error) {
	ctx, logger := logging.With(ctx, logging.FieldPath, group.Path)
	outcome := FileOutcome{Path: group.Path, State: StateLoading, Diagnostics: len(group.Targets)}

	content, snap, err := fsutil.Read(ctx, group.Path)
	if err != nil {
		return outcome, fmt.Errorf("load source: %w", err)
	}

	if !langdetect.IsRust(group.Path, content) {
		lang := langdetect.Detect(group.Path, content)
		logger.Warn("skipping non-Rust file", logging.FieldLanguage, lang)
		outcome.State = StateSkipped
		outcome.Reason = "not Rust (" + lang + ")"
		return outcome, nil
	}

	file := source.Parse(group.Path, content)
	file.Mode = snap.Mode

	targets := append([]Target(nil), group.Targets...)
	SortDescending(targets)

	for _, target := range targets {
		if target.Line < 1 || target.Line > file.Len() {
			return outcome, &InvalidLineError{Path: group.Path, Line: target.Line, Lines: file.Len()}
		}
	}

	targets = dropStale(file, targets, &outcome, logger)

	outcome.State = StateResolving
	points, err := r.resolveAll(ctx, file, targets, &outcome)
	if err != nil {
		return outcome, err
	}

	outcome.State = StateInserting
	original := file.Clone()
	insertions, err := r.insertAll(file, points, &outcome)
	if err != nil {
		return outcome, err
	}

	if len(insertions) == 0 {
		outcome.State = StateUnchanged
		return outcome, nil
	}
	outcome.Diff = fix.NewDiff(group.Path, original.Lines(), insertions)

	if r.Options.DryRun {
		outcome.State = StatePlanned
		return outcome, nil
	}

	backup, err := fsutil.Persist(ctx, snap, file.Bytes(), r.Options.Backups)
	outcome.Backup = backup
	if err != nil {
		return outcome, fmt.Errorf("%w: %s: %w", ErrWriteFailure, group.Path, err)
	}
	if inv, ok := r.Resolver.(resolve.Invalidator); ok {
		inv.Invalidate(group.Path)
	}

	logger.Debug("annotated file", logging.FieldInserted, outcome.Inserted)
	outcome.State = StatePersisted
	return outcome, nil
}

// dropStale removes targets whose reported source text differs from the
// line they point at. Such a diagnostic was produced against other content,
// typically before an earlier run inserted annotations above it.
func dropStale(file *source.File, targets []Target, outcome *FileOutcome, logger *log.Logger) []Target {
	kept := targets[:0]
	for _, target := range targets {
		want := target.Diagnostic.Primary().Text
		if want != "" && strings.TrimSpace(want) != strings.TrimSpace(file.Line(target.Line)) {
			outcome.Stale++
			logger.Warn("skipping stale diagnostic", logging.FieldLine, target.Line)
			continue
		}
		kept = append(kept, target)
	}
	return kept
}

// resolveAll resolves every target against the unmodified buffer and merges
// targets that share an insertion line. Points are returned highest line
// first.
func (r *Runner) resolveAll(ctx context.Context, file *source.File, targets []Target, outcome *FileOutcome) ([]planned, error) {
	logger := logging.FromContext(ctx)
	byLine := make(map[int]int)
	var points []planned

	for _, target := range targets {
		point, ok, err := r.Resolver.Resolve(ctx, file, target.Line)
		if err != nil {
			return nil, fmt.Errorf("resolve %s:%d: %w", file.Path, target.Line, err)
		}
		if !ok {
			outcome.Unresolved++
			logger.Debug("no enclosing construct", logging.FieldLine, target.Line)
			continue
		}

		if idx, seen := byLine[point.Line]; seen {
			points[idx].lines = append(points[idx].lines, target.Line)
			continue
		}
		byLine[point.Line] = len(points)
		points = append(points, planned{point: point, lines: []int{target.Line}})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].point.Line > points[j].point.Line
	})
	return points, nil
}

// insertAll applies points bottom-up, so every pending point still sits at
// its resolved line. Anchors are re-checked before each insertion.
func (r *Runner) insertAll(file *source.File, points []planned, outcome *FileOutcome) ([]fix.Insertion, error) {
	var insertions []fix.Insertion

	for _, p := range points {
		outcome.Duplicates += len(p.lines) - 1

		valid, err := file.Verify(p.point.Anchor)
		if err != nil {
			return nil, fmt.Errorf("verify anchor: %w", err)
		}
		if !valid {
			return nil, fmt.Errorf("%s:%d: insertion point moved before insertion", file.Path, p.point.Line)
		}

		inserted, err := r.Inserter.Insert(file, p.point)
		if err != nil {
			return nil, err
		}
		if !inserted {
			outcome.Duplicates++
			continue
		}

		outcome.Inserted++
		outcome.Annotations = append(outcome.Annotations, Annotation{
			Line:            p.point.Line,
			Kind:            p.point.Kind,
			DiagnosticLines: p.lines,
		})
		insertions = append(insertions, fix.Insertion{Before: p.point.Line, Text: file.Line(p.point.Line)})
	}

	return insertions, nil
}
