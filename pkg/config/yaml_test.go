package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/allowfix/pkg/clippy"
	"github.com/yaklabco/allowfix/pkg/config"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()

	assert.Equal(t, "#[allow(clippy::cast_possible_truncation)]", cfg.Annotation)
	assert.Equal(t, clippy.DefaultFilter(), cfg.Filter())
	assert.Equal(t, "structural", cfg.Strategy)
	assert.Equal(t, config.DefaultRoot, cfg.Root)
	assert.True(t, cfg.BackupsEnabled())
}

func TestBackupsEnabled(t *testing.T) {
	t.Parallel()

	off := false

	cfg := config.NewConfig()
	cfg.NoBackups = true
	assert.False(t, cfg.BackupsEnabled())

	cfg = config.NewConfig()
	cfg.Backups.Enabled = &off
	assert.False(t, cfg.BackupsEnabled())

	cfg = config.NewConfig()
	cfg.Backups.Mode = "none"
	assert.False(t, cfg.BackupsEnabled())
}

func TestFromYAML(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromYAML([]byte(`
strategy: treesitter
root: kernel
targets:
  - x86_64-unknown-none
  - aarch64-unknown-none
ignore:
  - "target/**"
backups:
  enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, "treesitter", cfg.Strategy)
	assert.Equal(t, "kernel", cfg.Root)
	assert.Equal(t, []string{"x86_64-unknown-none", "aarch64-unknown-none"}, cfg.Targets)
	assert.Equal(t, []string{"target/**"}, cfg.Ignore)
	require.NotNil(t, cfg.Backups.Enabled)
	assert.False(t, *cfg.Backups.Enabled)
	assert.Empty(t, cfg.Annotation, "absent fields stay zero for merging")
}

func TestFromYAML_Invalid(t *testing.T) {
	t.Parallel()

	_, err := config.FromYAML([]byte("targets: [unterminated"))
	require.Error(t, err)
}

func TestToYAML_RoundTrip(t *testing.T) {
	t.Parallel()

	original := config.NewConfig()
	original.Ignore = []string{"target/**"}
	original.DryRun = true

	data, err := original.ToYAMLWithHeader("# allowfix")
	require.NoError(t, err)
	assert.Contains(t, string(data), "# allowfix\n\n")
	assert.NotContains(t, string(data), "dry_run", "CLI-only fields are not persisted")

	parsed, err := config.FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, original.Annotation, parsed.Annotation)
	assert.Equal(t, original.Lint, parsed.Lint)
	assert.Equal(t, original.Ignore, parsed.Ignore)
	assert.False(t, parsed.DryRun)
}

func TestClone(t *testing.T) {
	t.Parallel()

	var nilCfg *config.Config
	assert.Nil(t, nilCfg.Clone())

	enabled := true
	original := config.NewConfig()
	original.Ignore = []string{"target/**"}
	original.Backups.Enabled = &enabled
	original.Jobs = 4

	clone := original.Clone()
	require.NotSame(t, original, clone)
	assert.Equal(t, original, clone)

	clone.Ignore[0] = "changed"
	*clone.Backups.Enabled = false
	clone.Targets = append(clone.Targets, "aarch64-unknown-none")

	assert.Equal(t, "target/**", original.Ignore[0])
	assert.True(t, *original.Backups.Enabled)
	assert.Len(t, original.Targets, 3)
}

func TestGenerateTemplate(t *testing.T) {
	t.Parallel()

	minimal, err := config.GenerateTemplate(config.TemplateOptions{})
	require.NoError(t, err)
	cfg, err := config.FromYAML(minimal)
	require.NoError(t, err)
	assert.Equal(t, "structural", cfg.Strategy)
	assert.Equal(t, "charlotte_core", cfg.Root)

	full, err := config.GenerateTemplate(config.TemplateOptions{Full: true})
	require.NoError(t, err)
	cfg, err = config.FromYAML(full)
	require.NoError(t, err)
	defaults := config.NewConfig()
	assert.Equal(t, defaults.Annotation, cfg.Annotation)
	assert.Equal(t, defaults.Lint, cfg.Lint)
	assert.Equal(t, defaults.ASTCommand, cfg.ASTCommand)
	assert.True(t, cfg.Backups.IsEnabled())

	asJSON, err := config.GenerateTemplate(config.TemplateOptions{Full: true, Format: "json"})
	require.NoError(t, err)
	var values map[string]any
	require.NoError(t, json.Unmarshal(asJSON, &values))
	assert.Equal(t, "structural", values["strategy"])
}
