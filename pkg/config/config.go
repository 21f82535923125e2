// Package config defines the configuration types for allowfix.
// These types are plain data; discovery and merging live in configloader.
package config

import (
	"slices"

	"github.com/yaklabco/allowfix/pkg/annotate"
	"github.com/yaklabco/allowfix/pkg/cargo"
	"github.com/yaklabco/allowfix/pkg/check"
	"github.com/yaklabco/allowfix/pkg/clippy"
)

const (
	// DefaultRoot is the project-root prefix joined to reported paths.
	DefaultRoot = "charlotte_core"

	// DefaultManifestPath is the kernel crate's manifest.
	DefaultManifestPath = DefaultRoot + "/Cargo.toml"
)

// LintConfig selects the diagnostics to suppress.
type LintConfig struct {
	// Reason is the record discriminator, e.g. "compiler-message".
	Reason string `yaml:"reason"`

	// Signature is a substring of the rendered message.
	Signature string `yaml:"signature"`
}

// BackupsConfig controls backup behavior when rewriting files.
type BackupsConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Mode    string `yaml:"mode"` // "sidecar" or "none"
}

// IsEnabled reports whether backups are on. Unset means on.
func (b BackupsConfig) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

// Config is the root configuration structure for allowfix.
type Config struct {
	// Annotation is the attribute line inserted above each construct.
	Annotation string `yaml:"annotation"`

	// Lint selects the diagnostics that are acted on.
	Lint LintConfig `yaml:"lint"`

	// Strategy names the resolver: structural, ast, or treesitter.
	Strategy string `yaml:"strategy"`

	// Root is joined to every path cargo reports.
	Root string `yaml:"root"`

	// ManifestPath is passed to cargo as --manifest-path.
	ManifestPath string `yaml:"manifest_path"`

	// Target is the target triple clippy runs for.
	Target string `yaml:"target"`

	// Targets are the triples `allowfix check` builds.
	Targets []string `yaml:"targets"`

	// ClippyArgs are appended to the clippy invocation.
	ClippyArgs []string `yaml:"clippy_args"`

	// ASTCommand is the AST dump command template for the ast strategy.
	ASTCommand string `yaml:"ast_command"`

	// Ignore contains glob patterns for files never edited.
	Ignore []string `yaml:"ignore"`

	// Backups configures backups taken before writing.
	Backups BackupsConfig `yaml:"backups"`

	// CLI-level options (not persisted to config files).

	// DryRun reports the planned annotations without writing.
	DryRun bool `yaml:"-"`

	// Format specifies the output format.
	Format string `yaml:"-"`

	// Color controls colorized output: auto, always, or never.
	Color string `yaml:"-"`

	// Input is a file holding a captured clippy stream; "-" reads stdin.
	Input string `yaml:"-"`

	// Jobs bounds how many targets `check` builds at once.
	Jobs int `yaml:"-"`

	// NoBackups disables backup creation.
	NoBackups bool `yaml:"-"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Annotation: annotate.DefaultAnnotation,
		Lint: LintConfig{
			Reason:    clippy.DefaultReason,
			Signature: clippy.DefaultSignature,
		},
		Strategy:     "structural",
		Root:         DefaultRoot,
		ManifestPath: DefaultManifestPath,
		Target:       check.DefaultTargets[0],
		Targets:      slices.Clone(check.DefaultTargets),
		ASTCommand:   cargo.DefaultASTCommand,
		Backups: BackupsConfig{
			Mode: "sidecar",
		},
		Format: "text",
		Color:  "auto",
		Jobs:   1,
	}
}

// Filter returns the diagnostic filter the config selects.
func (c *Config) Filter() clippy.Filter {
	return clippy.Filter{Reason: c.Lint.Reason, Signature: c.Lint.Signature}
}

// BackupsEnabled reports whether writes are preceded by a backup.
func (c *Config) BackupsEnabled() bool {
	return !c.NoBackups && c.Backups.IsEnabled() && c.Backups.Mode != "none"
}
