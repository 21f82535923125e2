package cli_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/allowfix/internal/cli"
	"github.com/yaklabco/allowfix/internal/configloader"
	"github.com/yaklabco/allowfix/pkg/annotate"
	"github.com/yaklabco/allowfix/pkg/cargo"
	"github.com/yaklabco/allowfix/pkg/fsutil"
	"github.com/yaklabco/allowfix/pkg/runner"
)

const frameSource = `use core::mem;

impl Frame {
    pub fn index(&self, x: u64) -> usize {
        x as usize
    }
}
`

// record renders one cast_possible_truncation record pointing at file:line.
func record(file string, line int) string {
	return fmt.Sprintf(`{"reason":"compiler-message","message":{`+
		`"rendered":"warning: casting `+"`u64`"+` to `+"`usize`"+` may truncate the value\n",`+
		`"children":[{"spans":[{"file_name":%q,"line_start":%d}]}]}}`, file, line)
}

// fakeExecutor answers every command with out, or fails commands whose
// arguments contain one of failOn.
type fakeExecutor struct {
	mu       sync.Mutex
	out      []byte
	err      error
	failOn   []string
	commands []cargo.Command
}

func (f *fakeExecutor) Run(_ context.Context, cmd cargo.Command) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, cmd)
	joined := strings.Join(cmd.Args, " ")
	for _, s := range f.failOn {
		if strings.Contains(joined, s) {
			return nil, fmt.Errorf("%w: %s", cargo.ErrSubprocess, joined)
		}
	}
	return f.out, f.err
}

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, executor cargo.Executor, args ...string) (string, error) {
	t.Helper()

	var opts []cli.Option
	if executor != nil {
		opts = append(opts, cli.WithExecutor(executor))
	}
	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-01"}, opts...)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// crate writes src/frame.rs under a fresh directory and returns the
// directory and the file path.
func crate(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "src", "frame.rs")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(frameSource), 0o644))
	return dir, path
}

func writeStream(t *testing.T, dir string, records ...string) string {
	t.Helper()

	path := filepath.Join(dir, "clippy.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(records, "\n")+"\n"), 0o644))
	return path
}

func TestNewRootCommand(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "1.0.0"})

	assert.Equal(t, "allowfix", cmd.Use)
	for _, name := range []string{"fix", "check", "init", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"debug", "config", "color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "allowfix")
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "abc123")
}

func TestHelpUsesStyledTemplate(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "fix", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "--dry-run")
	assert.Contains(t, out, "Global Flags:")
}

func TestFix_AnnotatesFromInputFile(t *testing.T) {
	t.Parallel()

	dir, path := crate(t)
	stream := writeStream(t, dir, record("src/frame.rs", 5))

	out, err := execute(t, nil, "fix", "--input", stream, "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 annotation added in 1 file")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")
	assert.Equal(t, "    "+annotate.DefaultAnnotation, lines[3])
	assert.Equal(t, "    pub fn index(&self, x: u64) -> usize {", lines[4])

	backup, err := os.ReadFile(path + fsutil.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, frameSource, string(backup))

	// A second run over the same stream changes nothing.
	out, err = execute(t, nil, "fix", "--input", stream, "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to annotate")

	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(content), string(again))
}

func TestFix_DryRunLeavesFileAlone(t *testing.T) {
	t.Parallel()

	dir, path := crate(t)
	stream := writeStream(t, dir, record("src/frame.rs", 5), `{"reason":`)

	out, err := execute(t, nil, "fix", "--input", stream, "--root", dir, "--dry-run", "--format", "diff")
	require.NoError(t, err)
	assert.Contains(t, out, "+    "+annotate.DefaultAnnotation)
	assert.Contains(t, out, "1 file changed, 1 insertion(+)")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, frameSource, string(content))
	assert.NoFileExists(t, path+fsutil.BackupSuffix)
}

func TestFix_JSONReportCountsMalformed(t *testing.T) {
	t.Parallel()

	dir, _ := crate(t)
	stream := writeStream(t, dir, `{"reason":`, record("src/frame.rs", 5))

	out, err := execute(t, nil, "fix", "--input", stream, "--root", dir, "--no-backups", "--format", "json", "--compact")
	require.NoError(t, err)
	assert.Contains(t, out, `"malformed":1`)
	assert.Contains(t, out, `"inserted":1`)
}

func TestFix_InvalidLineExitsWithReservedCode(t *testing.T) {
	t.Parallel()

	dir, path := crate(t)
	stream := writeStream(t, dir, record("src/frame.rs", 5), record("src/frame.rs", 99))

	_, err := execute(t, nil, "fix", "--input", stream, "--root", dir)
	require.Error(t, err)
	require.ErrorIs(t, err, runner.ErrInvalidLine)
	assert.Equal(t, cli.ExitInvalidLine, cli.ExitCodeFromError(err))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, frameSource, string(content), "file must not be written")
}

func TestFix_RunsClippy(t *testing.T) {
	t.Parallel()

	dir, path := crate(t)
	executor := &fakeExecutor{out: []byte(record("src/frame.rs", 5) + "\n")}

	_, err := execute(t, executor, "fix", "--root", dir, "--target", "aarch64-unknown-none", "--no-backups")
	require.NoError(t, err)

	require.Len(t, executor.commands, 1)
	assert.Equal(t, "cargo", executor.commands[0].Name)
	assert.Contains(t, executor.commands[0].Args, "clippy")
	assert.Contains(t, executor.commands[0].Args, "aarch64-unknown-none")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), annotate.DefaultAnnotation)
}

func TestFix_ClippyFailure(t *testing.T) {
	t.Parallel()

	dir, _ := crate(t)
	executor := &fakeExecutor{failOn: []string{"clippy"}}

	_, err := execute(t, executor, "fix", "--root", dir)
	require.ErrorIs(t, err, cargo.ErrSubprocess)
	assert.Equal(t, cli.ExitSubprocess, cli.ExitCodeFromError(err))
}

func TestFix_Stdin(t *testing.T) {
	t.Parallel()

	dir, path := crate(t)

	cmd := cli.NewRootCommand(cli.BuildInfo{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(record("src/frame.rs", 5) + "\n"))
	cmd.SetArgs([]string{"fix", "--input", "-", "--root", dir, "--no-backups"})

	require.NoError(t, cmd.Execute())
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), annotate.DefaultAnnotation)
}

func TestFix_UnreadableStreamEditsNothing(t *testing.T) {
	t.Parallel()

	dir, path := crate(t)

	cmd := cli.NewRootCommand(cli.BuildInfo{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(io.MultiReader(
		strings.NewReader(record("src/frame.rs", 5)+"\n"),
		iotest.ErrReader(errors.New("broken pipe")),
	))
	cmd.SetArgs([]string{"fix", "--input", "-", "--root", dir})

	err := cmd.Execute()
	require.ErrorIs(t, err, cli.ErrInput)
	assert.Equal(t, cli.ExitIOError, cli.ExitCodeFromError(err))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, frameSource, string(content), "file must not be written")
	assert.NoFileExists(t, path+fsutil.BackupSuffix)
}

func TestFix_DefaultClippyCommand(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{}

	_, err := execute(t, executor, "fix", "--dry-run")
	require.NoError(t, err)

	require.Len(t, executor.commands, 1)
	assert.Equal(t,
		"cargo --color never clippy --target x86_64-unknown-none "+
			"--manifest-path charlotte_core/Cargo.toml --message-format json",
		executor.commands[0].String())
}

func TestFix_UsageAndConfigErrors(t *testing.T) {
	t.Parallel()

	dir, _ := crate(t)
	stream := writeStream(t, dir, record("src/frame.rs", 5))

	_, err := execute(t, nil, "fix", "--no-such-flag")
	assert.Equal(t, cli.ExitInvalidUsage, cli.ExitCodeFromError(err))

	_, err = execute(t, nil, "fix", "extra")
	assert.Equal(t, cli.ExitInvalidUsage, cli.ExitCodeFromError(err))

	_, err = execute(t, nil, "fix", "--input", stream, "--root", dir, "--strategy", "psychic")
	var validationErr *configloader.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "strategy", validationErr.Field)
	assert.Equal(t, cli.ExitConfigError, cli.ExitCodeFromError(err))

	_, err = execute(t, nil, "fix", "--input", filepath.Join(dir, "missing.json"), "--root", dir)
	assert.Equal(t, cli.ExitIOError, cli.ExitCodeFromError(err))
}

func TestCheckCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "Cargo.toml")
	require.NoError(t, os.WriteFile(manifest, []byte("[package]\nname = \"charlotte_core\"\nversion = \"0.1.0\"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "lib.rs"),
		[]byte("#[allow(unused)]\nfn spare() {}\n"), 0o644))

	executor := &fakeExecutor{failOn: []string{"doc --target aarch64-unknown-none"}}

	out, err := execute(t, executor, "check", "--manifest-path", manifest,
		"--targets", "x86_64-unknown-none,aarch64-unknown-none")
	require.ErrorIs(t, err, cli.ErrCheckFailed)
	assert.Equal(t, cli.ExitCheckFailed, cli.ExitCodeFromError(err))

	assert.Contains(t, out, "x86_64-unknown-none: Ok\n")
	assert.Contains(t, out, "aarch64-unknown-none: Failed (doc)\n")
	assert.Contains(t, out, "src/lib.rs:1  #[allow(unused)]")
	assert.Contains(t, out, "1 of 2 targets failed, 1 suppression found")
}

func TestCheckCommand_AllOk(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{}

	out, err := execute(t, executor, "check", "--no-scan", "--targets", "x86_64-unknown-none")
	require.NoError(t, err)
	assert.Contains(t, out, "1 target ok, 0 suppressions found")
	assert.Len(t, executor.commands, 2, "check then doc")
}

func TestCheckCommand_DefaultTargets(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{}

	out, err := execute(t, executor, "check", "--no-scan")
	require.NoError(t, err)
	assert.Contains(t, out, "3 targets ok")

	var got []string
	for _, c := range executor.commands {
		got = append(got, c.String())
	}
	assert.ElementsMatch(t, []string{
		"cargo check --target x86_64-unknown-none --manifest-path charlotte_core/Cargo.toml",
		"cargo doc --target x86_64-unknown-none --manifest-path charlotte_core/Cargo.toml",
		"cargo check --target aarch64-unknown-none --manifest-path charlotte_core/Cargo.toml",
		"cargo doc --target aarch64-unknown-none --manifest-path charlotte_core/Cargo.toml",
		"cargo check --target riscv64gc-unknown-none-elf --manifest-path charlotte_core/Cargo.toml",
		"cargo doc --target riscv64gc-unknown-none-elf --manifest-path charlotte_core/Cargo.toml",
	}, got)
}

func TestInitCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	output := filepath.Join(dir, ".allowfix.yml")

	_, err := execute(t, nil, "init", "--output", output)
	require.NoError(t, err)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "strategy: structural")

	_, err = execute(t, nil, "init", "--output", output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, nil, "init", "--output", output, "--force", "--full")
	require.NoError(t, err)

	_, err = execute(t, nil, "init", "--format", "toml", "--output", filepath.Join(dir, "x"))
	assert.Equal(t, cli.ExitInvalidUsage, cli.ExitCodeFromError(err))
}

func TestExitCodeFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: cli.ExitSuccess},
		{name: "invalid line", err: &runner.InvalidLineError{Path: "a.rs", Line: 9, Lines: 3}, want: cli.ExitInvalidLine},
		{name: "subprocess", err: fmt.Errorf("run clippy: %w", cargo.ErrSubprocess), want: cli.ExitSubprocess},
		{name: "check failed", err: cli.ErrCheckFailed, want: cli.ExitCheckFailed},
		{name: "usage", err: fmt.Errorf("%w: bad flag", cli.ErrUsage), want: cli.ExitInvalidUsage},
		{name: "config", err: &configloader.ValidationError{Field: "strategy"}, want: cli.ExitConfigError},
		{name: "input", err: fmt.Errorf("%w: unexpected EOF", cli.ErrInput), want: cli.ExitIOError},
		{name: "write", err: fmt.Errorf("%w: disk full", runner.ErrWriteFailure), want: cli.ExitIOError},
		{name: "not found", err: fmt.Errorf("open: %w", os.ErrNotExist), want: cli.ExitIOError},
		{name: "other", err: errors.New("boom"), want: cli.ExitInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cli.ExitCodeFromError(tt.err))
		})
	}
}
