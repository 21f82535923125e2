package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full spells out every field with its default. Otherwise most fields
	// are commented out.
	Full bool

	// Format is the output format: "yaml" or "json".
	Format string
}

const minimalTemplate = `# allowfix configuration
# Settings here apply to every run in this directory tree.

# Resolver used to find the enclosing construct: structural, ast, or treesitter
strategy: structural

# Prefix joined to the file paths cargo reports
root: charlotte_core

# Target triple clippy is run for
# target: x86_64-unknown-none

# Files never edited (glob patterns)
# ignore:
#   - "charlotte_core/src/generated/**"
#   - "target/**"
`

const fullTemplate = `# allowfix configuration - Full Template
#
# Every field is listed with its default. Remove what you do not change.

# Attribute inserted above each construct
annotation: "#[allow(clippy::cast_possible_truncation)]"

# Diagnostics acted on: records whose reason matches and whose rendered
# message contains the signature
lint:
  reason: compiler-message
  signature: "casting ` + "`u64` to `usize`" + ` may truncate the value"

# Resolver used to find the enclosing construct: structural, ast, or treesitter
strategy: structural

# Prefix joined to the file paths cargo reports
root: charlotte_core

# Cargo manifest passed as --manifest-path
manifest_path: charlotte_core/Cargo.toml

# Target triple clippy is run for
target: x86_64-unknown-none

# Target triples built by "allowfix check"
targets:
  - x86_64-unknown-none
  - aarch64-unknown-none
  - riscv64gc-unknown-none-elf

# Extra arguments appended to the clippy invocation
clippy_args: []

# AST dump command used by the ast strategy (needs a nightly toolchain)
ast_command: "rustc -Z unpretty=ast-tree"

# Files never edited (glob patterns)
ignore:
  - "target/**"

# Backups taken before a file is rewritten
backups:
  enabled: true
  mode: sidecar
`

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	content := minimalTemplate
	if opts.Full {
		content = fullTemplate
	}

	if opts.Format == "json" {
		return templateToJSON([]byte(content))
	}

	return []byte(content), nil
}

// templateToJSON converts the uncommented settings of a YAML template to JSON.
func templateToJSON(yamlContent []byte) ([]byte, error) {
	var values map[string]any
	if err := yaml.Unmarshal(yamlContent, &values); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}

	return append(jsonBytes, '\n'), nil
}
