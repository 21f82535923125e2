package cargo

import (
	"context"
	"fmt"
	"strings"
)

// DefaultASTCommand dumps a file's AST with span annotations. It needs a
// nightly toolchain.
const DefaultASTCommand = "rustc -Z unpretty=ast-tree"

// ClippyOptions configures the analyzer run.
type ClippyOptions struct {
	// ManifestPath is passed as --manifest-path.
	ManifestPath string

	// Target is the target triple passed as --target. Empty uses the host.
	Target string

	// ExtraArgs are appended after the generated arguments.
	ExtraArgs []string

	// Dir is the working directory.
	Dir string
}

// ClippyCommand builds the cargo clippy invocation that emits JSON diagnostics.
func ClippyCommand(opts ClippyOptions) Command {
	args := []string{"--color", "never", "clippy"}
	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}
	args = append(args, "--message-format", "json")
	args = append(args, opts.ExtraArgs...)

	return Command{Dir: opts.Dir, Name: "cargo", Args: args}
}

// Clippy runs cargo clippy and returns its JSON stream. A non-zero exit is
// returned as an error wrapping ErrSubprocess.
func Clippy(ctx context.Context, executor Executor, opts ClippyOptions) ([]byte, error) {
	out, err := executor.Run(ctx, ClippyCommand(opts))
	if err != nil {
		return nil, fmt.Errorf("run clippy: %w", err)
	}
	return out, nil
}

// ASTDumpCommand builds the AST dump invocation for path from a command
// template such as DefaultASTCommand.
func ASTDumpCommand(template, path string) Command {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		fields = strings.Fields(DefaultASTCommand)
	}
	args := append(append([]string(nil), fields[1:]...), path)
	return Command{Name: fields[0], Args: args}
}

// TargetCommand builds `cargo <subcommand> --target T --manifest-path M` with
// TARGET exported, as the kernel build scripts expect.
func TargetCommand(subcommand, target, manifestPath string) Command {
	args := []string{subcommand, "--target", target}
	if manifestPath != "" {
		args = append(args, "--manifest-path", manifestPath)
	}
	return Command{
		Name: "cargo",
		Args: args,
		Env:  []string{"TARGET=" + target},
	}
}
