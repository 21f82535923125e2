// Package check builds a crate for each configured target and lists the
// unused-code suppressions left in its sources.
package check

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/allowfix/internal/logging"
	"github.com/yaklabco/allowfix/pkg/cargo"
)

// Status is the outcome of one target.
type Status string

const (
	StatusOk     Status = "Ok"
	StatusFailed Status = "Failed"
)

// Steps run for every target, in order. A target fails at the first step
// that exits non-zero.
//
//nolint:gochecknoglobals // Read-only lookup table.
var Steps = []string{"check", "doc"}

// DefaultTargets are the triples the kernel supports.
//
//nolint:gochecknoglobals // Read-only lookup table.
var DefaultTargets = []string{
	"x86_64-unknown-none",
	"aarch64-unknown-none",
	"riscv64gc-unknown-none-elf",
}

// TargetResult is the outcome of building one target.
type TargetResult struct {
	Target string
	Status Status

	// Step is the cargo subcommand that failed, when Status is Failed.
	Step string

	// Err is the failure, when Status is Failed.
	Err error
}

// Report is the outcome of a check run.
type Report struct {
	// Targets are in configured order.
	Targets []TargetResult

	// Suppressions are in path, then line, order.
	Suppressions []Suppression
}

// Failed reports whether any target failed.
func (r *Report) Failed() bool {
	for _, t := range r.Targets {
		if t.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Options configures a Checker.
type Options struct {
	// ManifestPath is passed to cargo as --manifest-path.
	ManifestPath string

	// Targets are the triples to build. Empty means DefaultTargets.
	Targets []string

	// Jobs bounds how many targets build at once. Values below one mean one.
	Jobs int

	// ScanRoot is the directory searched for suppressions. Empty skips the scan.
	ScanRoot string

	// Scan controls the suppression search.
	Scan ScanOptions
}

// Checker runs target builds through an Executor.
type Checker struct {
	Executor cargo.Executor
	Options  Options
}

// New creates a Checker. A nil executor runs real subprocesses.
func New(executor cargo.Executor, opts Options) *Checker {
	if executor == nil {
		executor = cargo.ExecExecutor{}
	}
	return &Checker{Executor: executor, Options: opts}
}

// Run builds every target and scans for suppressions. Build failures are
// recorded in the report; the error is reserved for cancellation and scan
// failures.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	targets, err := c.CheckTargets(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Targets: targets}

	if c.Options.ScanRoot != "" {
		report.Suppressions, err = Scan(ctx, c.Options.ScanRoot, c.Options.Scan)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

// CheckTargets builds each target with at most Options.Jobs running at once.
// Results keep the configured target order.
func (c *Checker) CheckTargets(ctx context.Context) ([]TargetResult, error) {
	targets := c.Options.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	jobs := max(c.Options.Jobs, 1)
	results := make([]TargetResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(targets)))

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			results[i] = c.checkTarget(gctx, target)
			if errors.Is(results[i].Err, context.Canceled) {
				return results[i].Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("check cancelled: %w", err)
	}

	return results, nil
}

func (c *Checker) checkTarget(ctx context.Context, target string) TargetResult {
	ctx, logger := logging.With(ctx, logging.FieldTarget, target)
	logger.Info("checking target")

	for _, step := range Steps {
		cmd := cargo.TargetCommand(step, target, c.Options.ManifestPath)
		if _, err := c.Executor.Run(ctx, cmd); err != nil {
			logger.Debug("target step failed", logging.FieldCommand, cmd.String(), logging.FieldError, err)
			return TargetResult{Target: target, Status: StatusFailed, Step: step, Err: err}
		}
	}

	return TargetResult{Target: target, Status: StatusOk}
}
