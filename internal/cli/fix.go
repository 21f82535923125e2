package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yaklabco/allowfix/internal/configloader"
	"github.com/yaklabco/allowfix/internal/logging"
	"github.com/yaklabco/allowfix/pkg/annotate"
	"github.com/yaklabco/allowfix/pkg/cargo"
	"github.com/yaklabco/allowfix/pkg/clippy"
	"github.com/yaklabco/allowfix/pkg/config"
	"github.com/yaklabco/allowfix/pkg/fsutil"
	"github.com/yaklabco/allowfix/pkg/reporter"
	"github.com/yaklabco/allowfix/pkg/resolve"
	"github.com/yaklabco/allowfix/pkg/runner"
)

// fixFlags holds the flags for the fix command.
type fixFlags struct {
	input        string
	strategy     string
	dryRun       bool
	format       string
	compact      bool
	manifestPath string
	target       string
	root         string
	noBackups    bool
	ignore       []string
}

func newFixCommand(e *env) *cobra.Command {
	flags := &fixFlags{}

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Annotate the constructs clippy reports truncating casts in",
		Long: `Run cargo clippy (or read a saved JSON stream) and insert the allow
attribute above the smallest construct enclosing each cast_possible_truncation
warning.

Examples:
  allowfix fix                                 Run clippy and annotate
  allowfix fix --dry-run --format diff         Show what would change
  cargo clippy --message-format json | allowfix fix --input -
  allowfix fix --input clippy.json --root .    Paths in the stream are relative to .`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFix(cmd, e, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", `read diagnostics from a file ("-" for stdin) instead of running clippy`)
	cmd.Flags().StringVarP(&flags.strategy, "strategy", "s", "", "construct resolver: structural, ast, treesitter")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "compute annotations without writing files")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "output format: text, json, diff")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "minified JSON output")
	cmd.Flags().StringVar(&flags.manifestPath, "manifest-path", "", "path to Cargo.toml")
	cmd.Flags().StringVar(&flags.target, "target", "", "target triple clippy is run for")
	cmd.Flags().StringVar(&flags.root, "root", "", "prefix joined to the paths clippy reports")
	cmd.Flags().BoolVar(&flags.noBackups, "no-backups", false, "do not keep a backup of rewritten files")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob of files never edited (repeatable)")

	return cmd
}

// fixCLIConfig collects the flags the user set into a config layer.
func fixCLIConfig(cmd *cobra.Command, flags *fixFlags) *config.Config {
	cliCfg := &config.Config{}
	changed := cmd.Flags().Changed

	if changed("input") {
		cliCfg.Input = flags.input
	}
	if changed("strategy") {
		cliCfg.Strategy = flags.strategy
	}
	if changed("format") {
		cliCfg.Format = flags.format
	}
	if changed("manifest-path") {
		cliCfg.ManifestPath = flags.manifestPath
	}
	if changed("target") {
		cliCfg.Target = flags.target
	}
	if changed("root") {
		cliCfg.Root = flags.root
	}
	if changed("ignore") {
		cliCfg.Ignore = flags.ignore
	}
	if changed("color") {
		cliCfg.Color, _ = cmd.Flags().GetString("color")
	}
	cliCfg.DryRun = flags.dryRun
	cliCfg.NoBackups = flags.noBackups

	return cliCfg
}

// loadConfig resolves the configuration layers with cliCfg on top.
func loadConfig(cmd *cobra.Command, cliCfg *config.Config) (*config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")

	loaded, err := configloader.Load(cmd.Context(), configloader.LoadOptions{
		ExplicitPath: explicit,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		var validationErr *configloader.ValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	logger := logging.Default()
	for _, w := range loaded.Warnings {
		logger.Warn(w)
	}
	for _, path := range loaded.LoadedFrom {
		logger.Debug("loaded configuration", logging.FieldConfig, path)
	}

	return loaded.Config, nil
}

// projectRoot applies the manifest directory when no root was configured.
func projectRoot(cfg *config.Config) (string, error) {
	if cfg.ManifestPath == "" || cfg.ManifestPath == config.DefaultManifestPath || cfg.Root != config.DefaultRoot {
		return cfg.Root, nil
	}

	manifest, err := cargo.ReadManifest(cfg.ManifestPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return manifest.Dir(), nil
}

// openDiagnostics returns the diagnostic stream named by cfg.Input, running
// clippy when none is named.
func openDiagnostics(ctx context.Context, cmd *cobra.Command, e *env, cfg *config.Config) (io.ReadCloser, error) {
	switch cfg.Input {
	case "-":
		return io.NopCloser(cmd.InOrStdin()), nil
	case "":
		logging.FromContext(ctx).Info("running clippy", logging.FieldTarget, cfg.Target)
		out, err := cargo.Clippy(ctx, e.executor, cargo.ClippyOptions{
			ManifestPath: cfg.ManifestPath,
			Target:       cfg.Target,
			ExtraArgs:    cfg.ClippyArgs,
		})
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(out)), nil
	default:
		logging.FromContext(ctx).Debug("reading diagnostics", logging.FieldInput, cfg.Input)
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("open diagnostics: %w", err)
		}
		return f, nil
	}
}

func runFix(cmd *cobra.Command, e *env, flags *fixFlags) error {
	cfg, err := loadConfig(cmd, fixCLIConfig(cmd, flags))
	if err != nil {
		return err
	}

	root, err := projectRoot(cfg)
	if err != nil {
		return err
	}

	strategy, err := resolve.ParseStrategy(cfg.Strategy)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	resolver, err := resolve.New(strategy, resolve.Deps{
		Executor:   e.executor,
		ASTCommand: cfg.ASTCommand,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	backupMode, err := fsutil.ParseBackupMode(cfg.Backups.Mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	format, err := reporter.ParseFormat(cfg.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	logger := logging.Default().With(
		logging.FieldStrategy, string(strategy),
		logging.FieldRoot, root,
		logging.FieldDryRun, cfg.DryRun,
	)
	ctx := logging.WithLogger(cmd.Context(), logger)

	input, err := openDiagnostics(ctx, cmd, e, cfg)
	if err != nil {
		return err
	}
	defer input.Close()

	// Read the whole stream before editing anything.
	diagnostics, malformed, err := clippy.Collect(input, cfg.Filter())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInput, err)
	}

	run := runner.New(resolver, annotate.New(cfg.Annotation), runner.Options{
		Root:   root,
		Ignore: cfg.Ignore,
		DryRun: cfg.DryRun,
		Backups: fsutil.BackupConfig{
			Enabled: cfg.BackupsEnabled(),
			Mode:    backupMode,
		},
	})

	result, runErr := run.Run(ctx, slices.Values(diagnostics))
	if result == nil {
		return runErr
	}
	result.Stats.Malformed = malformed

	logger.Debug("run finished",
		logging.FieldFiles, result.Stats.Files,
		logging.FieldDiagnostics, result.Stats.Diagnostics,
		logging.FieldInserted, result.Stats.Inserted,
		logging.FieldDuplicates, result.Stats.Duplicates,
		logging.FieldUnresolved, result.Stats.Unresolved,
		logging.FieldStale, result.Stats.Stale,
		logging.FieldMalformed, result.Stats.Malformed,
	)

	workDir, _ := os.Getwd()
	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		Format:      format,
		Color:       cfg.Color,
		ShowSummary: true,
		Compact:     flags.compact,
		DryRun:      cfg.DryRun,
		WorkingDir:  workDir,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if _, err := rep.Report(ctx, result); err != nil {
		return errors.Join(runErr, fmt.Errorf("write report: %w", err))
	}

	return runErr
}
