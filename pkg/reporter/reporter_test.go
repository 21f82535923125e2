package reporter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/allowfix/pkg/fix"
	"github.com/yaklabco/allowfix/pkg/reporter"
	"github.com/yaklabco/allowfix/pkg/resolve"
	"github.com/yaklabco/allowfix/pkg/runner"
)

const allow = "#[allow(clippy::cast_possible_truncation)]"

func sampleResult() *runner.Result {
	original := []string{
		"use core::mem;",
		"",
		"fn read() -> u32 {",
		"    let x = 1u64 as u32;",
		"    x",
		"}",
	}

	return &runner.Result{
		State: runner.StatePersisted,
		Files: []runner.FileOutcome{
			{
				Path:        "/work/charlotte_core/src/arch/mod.rs",
				State:       runner.StatePersisted,
				Diagnostics: 2,
				Inserted:    1,
				Duplicates:  1,
				Annotations: []runner.Annotation{
					{Line: 3, Kind: resolve.KindFunction, DiagnosticLines: []int{4}},
				},
				Diff: fix.NewDiff("charlotte_core/src/arch/mod.rs", original, []fix.Insertion{
					{Before: 3, Text: allow},
				}),
				Backup: "/work/charlotte_core/src/arch/mod.rs.allowfix.bak",
			},
			{
				Path:   "/work/charlotte_core/build.py",
				State:  runner.StateSkipped,
				Reason: "not a Rust source file",
			},
		},
		Stats: runner.Stats{
			Files:         2,
			FilesModified: 1,
			FilesSkipped:  1,
			Diagnostics:   2,
			Inserted:      1,
			Duplicates:    1,
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    reporter.Format
		wantErr bool
	}{
		{name: "empty defaults to text", input: "", want: reporter.FormatText},
		{name: "text", input: "text", want: reporter.FormatText},
		{name: "json", input: "json", want: reporter.FormatJSON},
		{name: "diff", input: "diff", want: reporter.FormatDiff},
		{name: "unknown format", input: "sarif", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := reporter.ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := reporter.New(reporter.Options{Writer: &bytes.Buffer{}, Format: "xml"})
	require.Error(t, err)
}

func TestTextReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{
		Writer:      &buf,
		Format:      reporter.FormatText,
		Color:       "never",
		ShowSummary: true,
		WorkingDir:  "/work",
	})
	require.NoError(t, err)

	n, err := rep.Report(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := buf.String()
	assert.Contains(t, out, "charlotte_core/src/arch/mod.rs (1 annotation, 1 already present)")
	assert.Contains(t, out, "charlotte_core/src/arch/mod.rs:3  function  covers line 4")
	assert.Contains(t, out, "backup: charlotte_core/src/arch/mod.rs.allowfix.bak")
	assert.Contains(t, out, "charlotte_core/build.py: skipped: not a Rust source file")
	assert.Contains(t, out, "1 annotation added in 1 file (2 diagnostics, 1 already present, 1 file skipped)")
	assert.NotContains(t, out, "/work/")
}

func TestTextReporter_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never", ShowSummary: true})

	n, err := rep.Report(context.Background(), &runner.Result{State: runner.StatePersisted})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "No matching diagnostics\n", buf.String())
}

func TestTextReporter_Error(t *testing.T) {
	t.Parallel()

	result := &runner.Result{
		State: runner.StateAborted,
		Files: []runner.FileOutcome{
			{Path: "src/lib.rs", State: runner.StateAborted, Error: errors.New("line 99 out of range")},
		},
	}

	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never"})

	_, err := rep.Report(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, "src/lib.rs: error: line 99 out of range\n", buf.String())
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf, Compact: true, WorkingDir: "/work"})

	n, err := rep.Report(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"), "compact output is a single line")

	var output reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))

	assert.Equal(t, "persisted", output.State)
	require.Len(t, output.Files, 2)
	assert.Equal(t, "charlotte_core/src/arch/mod.rs", output.Files[0].Path)
	assert.Equal(t, []reporter.JSONAnnotation{
		{Line: 3, Kind: "function", DiagnosticLines: []int{4}},
	}, output.Files[0].Annotations)
	assert.Equal(t, "skipped", output.Files[1].State)
	assert.Empty(t, output.Files[1].Annotations)
	assert.Equal(t, 1, output.Summary.Inserted)
	assert.Equal(t, 1, output.Summary.FilesSkipped)
}

func TestJSONReporter_Nil(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf})

	_, err := rep.Report(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"files": []`)
}

func TestDiffReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewDiffReporter(reporter.Options{Writer: &buf, Color: "never", ShowSummary: true})

	n, err := rep.Report(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := buf.String()
	assert.Contains(t, out, "diff --git a/charlotte_core/src/arch/mod.rs b/charlotte_core/src/arch/mod.rs\n")
	assert.Contains(t, out, "--- a/charlotte_core/src/arch/mod.rs\n")
	assert.Contains(t, out, "@@ -1,5 +1,6 @@\n")
	assert.Contains(t, out, "+"+allow+"\n")
	assert.Contains(t, out, " fn read() -> u32 {\n")
	assert.True(t, strings.HasSuffix(out, "1 file changed, 1 insertion(+)\n"))
	assert.NotContains(t, out, "build.py")
}
