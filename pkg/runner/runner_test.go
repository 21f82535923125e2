package runner_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/allowfix/pkg/annotate"
	"github.com/yaklabco/allowfix/pkg/cargo"
	"github.com/yaklabco/allowfix/pkg/clippy"
	"github.com/yaklabco/allowfix/pkg/fsutil"
	"github.com/yaklabco/allowfix/pkg/resolve"
	"github.com/yaklabco/allowfix/pkg/runner"
	"github.com/yaklabco/allowfix/pkg/source"
)

const allow = annotate.DefaultAnnotation

func diag(file string, line int) clippy.Diagnostic {
	return clippy.Diagnostic{
		Reason:    clippy.DefaultReason,
		Rendered:  "warning: " + clippy.DefaultSignature,
		Locations: []clippy.Location{{File: file, Line: line}},
	}
}

func writeSource(t *testing.T, root, rel string, lines ...string) string {
	t.Helper()

	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return source.Parse(path, content).Lines()
}

func newRunner(root string, mutate ...func(*runner.Options)) *runner.Runner {
	opts := runner.Options{Root: root}
	for _, m := range mutate {
		m(&opts)
	}
	return runner.New(resolve.NewStructural(), nil, opts)
}

// methodAtLine10 has a three-line method starting at line 10.
func methodAtLine10() []string {
	lines := []string{"use core::mem;"}
	for n := 2; n <= 8; n++ {
		lines = append(lines, fmt.Sprintf("// line %d", n))
	}
	return append(lines,
		"impl Frame {",
		"    pub fn index(&self, x: u64) -> usize {",
		"        x as usize",
		"    }",
		"}",
	)
}

func TestSortDescending(t *testing.T) {
	t.Parallel()

	first := diag("a.rs", 5)
	first.Rendered = "first"
	second := diag("a.rs", 5)
	second.Rendered = "second"

	targets := []runner.Target{
		{Line: 5, Diagnostic: first},
		{Line: 20, Diagnostic: diag("a.rs", 20)},
		{Line: 5, Diagnostic: second},
	}
	runner.SortDescending(targets)

	assert.Equal(t, []int{20, 5, 5}, []int{targets[0].Line, targets[1].Line, targets[2].Line})
	assert.Equal(t, "first", targets[1].Diagnostic.Rendered)
	assert.Equal(t, "second", targets[2].Diagnostic.Rendered)
}

func TestGroup(t *testing.T) {
	t.Parallel()

	groups := runner.Group(slices.Values([]clippy.Diagnostic{
		diag("src/z.rs", 1),
		diag("src/a.rs", 4),
		diag("src/z.rs", 9),
		diag("/abs/lib.rs", 2),
		{Reason: clippy.DefaultReason},
	}), "charlotte_core")

	require.Len(t, groups, 3)
	assert.Equal(t, "/abs/lib.rs", groups[0].Path)
	assert.Equal(t, filepath.Join("charlotte_core", "src", "a.rs"), groups[1].Path)
	assert.Equal(t, "src/a.rs", groups[1].Reported)
	assert.Equal(t, filepath.Join("charlotte_core", "src", "z.rs"), groups[2].Path)
	assert.Len(t, groups[2].Targets, 2)
}

func TestRunner_AnnotatesEnclosingFunction(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeSource(t, root, "src/frame.rs", methodAtLine10()...)
	before := readLines(t, path)

	result, err := newRunner(root).Run(context.Background(), slices.Values([]clippy.Diagnostic{diag("src/frame.rs", 11)}))
	require.NoError(t, err)
	assert.Equal(t, runner.StatePersisted, result.State)
	assert.Equal(t, 1, result.Stats.Inserted)
	assert.Equal(t, 1, result.Stats.FilesModified)

	after := readLines(t, path)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "    "+allow, after[9])
	assert.Equal(t, before[:9], after[:9])
	assert.Equal(t, before[9:], after[10:])

	require.Len(t, result.Files, 1)
	outcome := result.Files[0]
	require.Len(t, outcome.Annotations, 1)
	assert.Equal(t, 10, outcome.Annotations[0].Line)
	assert.Equal(t, resolve.KindFunction, outcome.Annotations[0].Kind)
	assert.Equal(t, []int{11}, outcome.Annotations[0].DiagnosticLines)
}

func TestRunner_Idempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeSource(t, root, "src/frame.rs", methodAtLine10()...)
	diags := []clippy.Diagnostic{diag("src/frame.rs", 11)}

	_, err := newRunner(root).Run(context.Background(), slices.Values(diags))
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// The analyzer reruns on the annotated file, so the body moved down a line.
	result, err := newRunner(root).Run(context.Background(), slices.Values([]clippy.Diagnostic{diag("src/frame.rs", 12)}))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.Inserted)
	assert.Equal(t, 1, result.Stats.Duplicates)
	assert.Equal(t, runner.StateUnchanged, result.Files[0].State)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestRunner_SameStreamTwiceIsByteIdentical(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lines := []string{
		"fn a(x: u64) -> usize { x as usize }",
		"static S: usize = 0;",
		"fn b(y: u64) -> usize { y as usize }",
	}
	path := writeSource(t, root, "src/lib.rs", lines...)

	withText := func(line int) clippy.Diagnostic {
		d := diag("src/lib.rs", line)
		d.Locations[0].Text = lines[line-1]
		return d
	}
	diags := []clippy.Diagnostic{withText(1), withText(3)}

	result, err := newRunner(root).Run(context.Background(), slices.Values(diags))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Inserted)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err = newRunner(root).Run(context.Background(), slices.Values(diags))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.Inserted)
	assert.Equal(t, 2, result.Stats.Stale)
	assert.Equal(t, runner.StateUnchanged, result.Files[0].State)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, []string{allow, lines[0], lines[1], allow, lines[2]}, readLines(t, path))
}

func TestRunner_InvalidLineAborts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "fn f() {}"
	}
	path := writeSource(t, root, "src/big.rs", lines...)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err := newRunner(root).Run(context.Background(), slices.Values([]clippy.Diagnostic{
		diag("src/big.rs", 3),
		diag("src/big.rs", 500),
	}))
	require.ErrorIs(t, err, runner.ErrInvalidLine)

	var lineErr *runner.InvalidLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 500, lineErr.Line)
	assert.Equal(t, 100, lineErr.Lines)
	assert.Equal(t, runner.StateAborted, result.State)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRunner_DescendingOrderWithDuplicates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeSource(t, root, "src/lib.rs",
		"use core::mem;",
		"",
		"fn low(x: u64) -> usize {",
		"    let a = x as usize;",
		"    a + (x as usize)",
		"}",
		"",
		"struct Pad;",
		"",
		"",
		"",
		"",
		"",
		"",
		"",
		"",
		"",
		"pub fn high(x: u64) -> usize {",
		"",
		"    x as usize",
		"}",
	)

	result, err := newRunner(root).Run(context.Background(), slices.Values([]clippy.Diagnostic{
		diag("src/lib.rs", 5),
		diag("src/lib.rs", 20),
		diag("src/lib.rs", 5),
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Inserted)
	assert.Equal(t, 1, result.Stats.Duplicates)

	after := readLines(t, path)
	require.Len(t, after, 23)
	assert.Equal(t, allow, after[2])
	assert.Equal(t, "fn low(x: u64) -> usize {", after[3])
	assert.Equal(t, allow, after[18])
	assert.Equal(t, "pub fn high(x: u64) -> usize {", after[19])
}

func TestRunner_StaticInsideFunction(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lines := []string{"fn outer() {"}
	for len(lines) < 7 {
		lines = append(lines, "    let a = 1;")
	}
	lines = append(lines, "    static LIMIT: usize = u64::MAX as usize;")
	for len(lines) < 19 {
		lines = append(lines, "    let b = 2;")
	}
	lines = append(lines, "}")
	path := writeSource(t, root, "src/outer.rs", lines...)

	_, err := newRunner(root).Run(context.Background(), slices.Values([]clippy.Diagnostic{diag("src/outer.rs", 8)}))
	require.NoError(t, err)

	after := readLines(t, path)
	assert.Equal(t, "fn outer() {", after[0])
	assert.Equal(t, "    "+allow, after[7])
	assert.Equal(t, "    static LIMIT: usize = u64::MAX as usize;", after[8])
}

func TestRunner_DryRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeSource(t, root, "src/frame.rs", methodAtLine10()...)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err := newRunner(root, func(o *runner.Options) { o.DryRun = true }).
		Run(context.Background(), slices.Values([]clippy.Diagnostic{diag("src/frame.rs", 11)}))
	require.NoError(t, err)

	outcome := result.Files[0]
	assert.Equal(t, runner.StatePlanned, outcome.State)
	require.True(t, outcome.Diff.HasChanges())
	assert.Contains(t, outcome.Diff.String(), "+    "+allow+"\n")
	assert.Equal(t, 1, result.Stats.Inserted)
	assert.Zero(t, result.Stats.FilesModified)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRunner_Backup(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeSource(t, root, "src/frame.rs", methodAtLine10()...)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err := newRunner(root, func(o *runner.Options) { o.Backups = fsutil.DefaultBackupConfig() }).
		Run(context.Background(), slices.Values([]clippy.Diagnostic{diag("src/frame.rs", 11)}))
	require.NoError(t, err)

	backup := result.Files[0].Backup
	assert.Equal(t, path+fsutil.BackupSuffix, backup)
	saved, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(saved))
}

func TestRunner_SkipsIgnoredAndNonRust(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	generated := writeSource(t, root, "src/generated/vectors.rs", "fn v(x: u64) -> usize {", "    x as usize", "}")
	notes := writeSource(t, root, "docs/notes.md", "# Notes", "", "Some text.")

	result, err := newRunner(root, func(o *runner.Options) { o.Ignore = []string{"src/generated/**"} }).
		Run(context.Background(), slices.Values([]clippy.Diagnostic{
			diag("src/generated/vectors.rs", 2),
			diag("docs/notes.md", 3),
		}))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.FilesSkipped)
	assert.Zero(t, result.Stats.Inserted)

	for _, f := range result.Files {
		assert.Equal(t, runner.StateSkipped, f.State, f.Path)
	}
	assert.Len(t, readLines(t, generated), 3)
	assert.Len(t, readLines(t, notes), 3)
}

func TestRunner_Unresolved(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/consts.rs", "const LIMIT: usize = u64::MAX as usize;")

	result, err := newRunner(root).Run(context.Background(), slices.Values([]clippy.Diagnostic{diag("src/consts.rs", 1)}))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Unresolved)
	assert.Equal(t, runner.StateUnchanged, result.Files[0].State)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, *source.File, int) (resolve.InsertionPoint, bool, error) {
	return resolve.InsertionPoint{}, false, fmt.Errorf("dump AST: %w", cargo.ErrSubprocess)
}

func TestRunner_ResolverFailureAborts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeSource(t, root, "src/frame.rs", methodAtLine10()...)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	r := runner.New(failingResolver{}, nil, runner.Options{Root: root})
	result, err := r.Run(context.Background(), slices.Values([]clippy.Diagnostic{diag("src/frame.rs", 11)}))
	require.ErrorIs(t, err, cargo.ErrSubprocess)
	assert.Equal(t, runner.StateAborted, result.State)
	assert.Equal(t, runner.StateAborted, result.Files[0].State)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRunner_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := newRunner(t.TempDir()).Run(context.Background(), slices.Values([]clippy.Diagnostic{diag("src/gone.rs", 1)}))
	require.ErrorIs(t, err, fsutil.ErrNotFound)
}

func TestRunner_InvalidIgnorePattern(t *testing.T) {
	t.Parallel()

	_, err := newRunner(t.TempDir(), func(o *runner.Options) { o.Ignore = []string{"[a-"} }).
		Run(context.Background(), slices.Values([]clippy.Diagnostic{}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, runner.ErrInvalidLine))
}
