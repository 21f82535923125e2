package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/allowfix/internal/logging"
	"github.com/yaklabco/allowfix/internal/ui/pretty"
	"github.com/yaklabco/allowfix/pkg/cargo"
	"github.com/yaklabco/allowfix/pkg/check"
	"github.com/yaklabco/allowfix/pkg/config"
)

// checkFlags holds the flags for the check command.
type checkFlags struct {
	targets      []string
	jobs         int
	manifestPath string
	noScan       bool
	pattern      string
}

func newCheckCommand(e *env) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Build every target and list unused-code suppressions",
		Long: `Run cargo check and cargo doc for each configured target triple and report
Ok or Failed per target. Afterwards every line carrying #[allow(unused)] is
listed so stale suppressions can be reviewed.

The command exits with status 1 when any target fails.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, e, flags)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.targets, "targets", "t", nil, "target triples to build (repeatable)")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "targets built at once")
	cmd.Flags().StringVar(&flags.manifestPath, "manifest-path", "", "path to Cargo.toml")
	cmd.Flags().BoolVar(&flags.noScan, "no-scan", false, "skip the suppression scan")
	cmd.Flags().StringVar(&flags.pattern, "pattern", check.DefaultPattern, "suppression text to search for")

	return cmd
}

func runCheck(cmd *cobra.Command, e *env, flags *checkFlags) error {
	cliCfg := &config.Config{
		ManifestPath: flags.manifestPath,
		Jobs:         flags.jobs,
	}
	if cmd.Flags().Changed("targets") {
		cliCfg.Targets = flags.targets
	}
	if cmd.Flags().Changed("color") {
		cliCfg.Color, _ = cmd.Flags().GetString("color")
	}

	cfg, err := loadConfig(cmd, cliCfg)
	if err != nil {
		return err
	}

	var scanRoot string
	switch {
	case flags.noScan:
	case cfg.ManifestPath == "":
		scanRoot = "."
	default:
		manifest, err := cargo.ReadManifest(cfg.ManifestPath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		scanRoot = manifest.Dir()
	}

	logger := logging.Default().With(logging.FieldJobs, cfg.Jobs)
	ctx := logging.WithLogger(cmd.Context(), logger)

	checker := check.New(e.executor, check.Options{
		ManifestPath: cfg.ManifestPath,
		Targets:      cfg.Targets,
		Jobs:         cfg.Jobs,
		ScanRoot:     scanRoot,
		Scan: check.ScanOptions{
			Pattern: flags.pattern,
			Exclude: cfg.Ignore,
		},
	})

	report, err := checker.Run(ctx)
	if report == nil {
		return err
	}

	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(cfg.Color, out))
	w := bufio.NewWriter(out)

	for _, t := range report.Targets {
		fmt.Fprint(w, styles.FormatTarget(t))
		if t.Err != nil {
			logger.Debug("target failed", logging.FieldTarget, t.Target, logging.FieldError, t.Err)
		}
	}
	if len(report.Suppressions) > 0 {
		fmt.Fprintln(w)
		for _, s := range report.Suppressions {
			fmt.Fprint(w, styles.FormatSuppression(s))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, styles.FormatCheckSummary(report))

	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("write report: %w", flushErr)
	}
	if err != nil {
		return err
	}
	if report.Failed() {
		return ErrCheckFailed
	}
	return nil
}
