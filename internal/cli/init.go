package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/allowfix/internal/configloader"
	"github.com/yaklabco/allowfix/internal/logging"
	"github.com/yaklabco/allowfix/pkg/config"
)

// initFlags holds the flags for the init command.
type initFlags struct {
	force  bool
	full   bool
	format string
	output string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new allowfix configuration file",
		Long: `Create a .allowfix.yml configuration file in the current directory with the
default strategy, project root, targets and backup settings.

Examples:
  allowfix init                      Create minimal .allowfix.yml
  allowfix init --full               Spell out every setting with its default
  allowfix init --format json        Create .allowfix.json instead
  allowfix init --output custom.yml  Write to a custom file path`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags, configloader.IsInteractive())
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "overwrite an existing configuration file")
	cmd.Flags().BoolVar(&flags.full, "full", false, "generate the full template")
	cmd.Flags().StringVar(&flags.format, "format", "yaml", "output format: yaml or json")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file path (default: .allowfix.yml or .allowfix.json)")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags, interactive bool) error {
	logger := logging.Default()

	if flags.format != "yaml" && flags.format != "json" {
		return fmt.Errorf("%w: invalid format %q: must be yaml or json", ErrUsage, flags.format)
	}

	outputPath := flags.output
	if outputPath == "" {
		if flags.format == "json" {
			outputPath = ".allowfix.json"
		} else {
			outputPath = configloader.ProjectConfigFile
		}
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); err == nil && !flags.force {
		if !interactive || !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), outputPath) {
			return fmt.Errorf("%w: file %q already exists; use --force to overwrite", ErrUsage, outputPath)
		}
		logger.Warn("overwriting existing file", logging.FieldPath, outputPath)
	}

	content, err := config.GenerateTemplate(config.TemplateOptions{
		Full:   flags.full,
		Format: flags.format,
	})
	if err != nil {
		return fmt.Errorf("generate template: %w", err)
	}

	if err := os.WriteFile(absPath, content, configloader.ConfigFilePermissions); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	logger.Info("created configuration file", logging.FieldPath, outputPath)
	logger.Info("run 'allowfix fix --dry-run' to preview annotations")

	return nil
}

// confirm asks whether path may be overwritten. Only "y" or "yes" agree.
func confirm(in io.Reader, out io.Writer, path string) bool {
	fmt.Fprintf(out, "%s already exists. Overwrite? [y/N] ", path)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
