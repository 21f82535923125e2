// Package cli provides the Cobra command structure for allowfix.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/allowfix/internal/logging"
	"github.com/yaklabco/allowfix/pkg/cargo"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Option customizes the command tree.
type Option func(*env)

// env carries what commands share beyond their flags.
type env struct {
	executor cargo.Executor
}

// WithExecutor replaces the subprocess runner used for cargo and rustc.
func WithExecutor(executor cargo.Executor) Option {
	return func(e *env) {
		e.executor = executor
	}
}

// NewRootCommand creates the root allowfix command with all subcommands.
func NewRootCommand(info BuildInfo, opts ...Option) *cobra.Command {
	e := &env{executor: cargo.ExecExecutor{}}
	for _, opt := range opts {
		opt(e)
	}

	var debug bool

	rootCmd := &cobra.Command{
		Use:   "allowfix",
		Short: "Suppress clippy truncation warnings at their enclosing construct",
		Long: `allowfix reads the JSON diagnostics of cargo clippy and inserts
#[allow(clippy::cast_possible_truncation)] directly above the smallest
function, type, static, or statement that encloses each reported line.

Every annotation goes in once. Re-running over the same diagnostics changes
nothing, and nothing but the attribute lines is ever written.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "path to config file")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output: auto, always, never")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	rootCmd.AddCommand(newFixCommand(e))
	rootCmd.AddCommand(newCheckCommand(e))
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	applyHelpStyles(rootCmd, os.Stdout)

	return rootCmd
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return nil
}
