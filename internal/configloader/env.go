package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yaklabco/allowfix/pkg/config"
)

// envVarPrefix is the prefix for all allowfix environment variables.
const envVarPrefix = "ALLOWFIX_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeSlice
)

// envMapping defines environment variable to config field mappings.
type envMapping struct {
	field string
	typ   envFieldType
	help  string
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"ANNOTATION":      {field: "annotation", typ: envTypeString, help: "Attribute line to insert"},
	"LINT_REASON":     {field: "lint.reason", typ: envTypeString, help: "Record reason to match"},
	"LINT_SIGNATURE":  {field: "lint.signature", typ: envTypeString, help: "Rendered-message substring to match"},
	"STRATEGY":        {field: "strategy", typ: envTypeString, help: "Resolver: structural, ast, or treesitter"},
	"ROOT":            {field: "root", typ: envTypeString, help: "Prefix joined to reported paths"},
	"MANIFEST_PATH":   {field: "manifest_path", typ: envTypeString, help: "Cargo manifest path"},
	"TARGET":          {field: "target", typ: envTypeString, help: "Target triple for clippy"},
	"TARGETS":         {field: "targets", typ: envTypeSlice, help: "Comma-separated target triples for check"},
	"CLIPPY_ARGS":     {field: "clippy_args", typ: envTypeSlice, help: "Comma-separated extra clippy arguments"},
	"AST_COMMAND":     {field: "ast_command", typ: envTypeString, help: "AST dump command template"},
	"IGNORE":          {field: "ignore", typ: envTypeSlice, help: "Comma-separated list of ignore patterns"},
	"BACKUPS_ENABLED": {field: "backups.enabled", typ: envTypeBool, help: "Enable backups: true or false"},
	"BACKUPS_MODE":    {field: "backups.mode", typ: envTypeString, help: "Backup mode: sidecar or none"},
	"DRY_RUN":         {field: "dry_run", typ: envTypeBool, help: "Dry-run mode: true or false"},
	"FORMAT":          {field: "format", typ: envTypeString, help: "Output format: text, json, or diff"},
	"COLOR":           {field: "color", typ: envTypeString, help: "Color mode: auto, always, or never"},
	"JOBS":            {field: "jobs", typ: envTypeInt, help: "Targets checked at once"},
	"NO_BACKUPS":      {field: "no_backups", typ: envTypeBool, help: "Disable backups: true or false"},
}

// EnvLookup returns a lookup that consults the process environment first and
// then the variables of dotEnvPath, if set. A process variable always wins.
func EnvLookup(dotEnvPath string) (func(string) (string, bool), error) {
	if dotEnvPath == "" {
		return os.LookupEnv, nil
	}

	fileVars, err := godotenv.Read(dotEnvPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dotEnvPath, err)
	}

	return func(name string) (string, bool) {
		if value, ok := os.LookupEnv(name); ok {
			return value, true
		}
		value, ok := fileVars[name]
		return value, ok
	}, nil
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with ALLOWFIX_ (e.g., ALLOWFIX_STRATEGY).
func LoadFromEnv(cfg *config.Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, envSuffix := range sortedEnvSuffixes() {
		mapping := envMappings[envSuffix]
		envVar := envVarPrefix + envSuffix
		value, _ := lookup(envVar)
		if value == "" {
			continue
		}

		if err := applyEnvValue(cfg, mapping, value, envVar); err != nil {
			return err
		}
	}

	return nil
}

func sortedEnvSuffixes() []string {
	suffixes := make([]string, 0, len(envMappings))
	for suffix := range envMappings {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)
	return suffixes
}

// applyEnvValue applies a single environment variable value to the config.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		return setStringField(cfg, mapping.field, value)
	case envTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", envVar, value)
		}
		return setBoolField(cfg, mapping.field, b)
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		return setIntField(cfg, mapping.field, i)
	case envTypeSlice:
		return setSliceField(cfg, mapping.field, parseSliceValue(value))
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// setStringField sets a string field on the config by field path.
func setStringField(cfg *config.Config, field, value string) error {
	switch field {
	case "annotation":
		cfg.Annotation = value
	case "lint.reason":
		cfg.Lint.Reason = value
	case "lint.signature":
		cfg.Lint.Signature = value
	case "strategy":
		cfg.Strategy = value
	case "root":
		cfg.Root = value
	case "manifest_path":
		cfg.ManifestPath = value
	case "target":
		cfg.Target = value
	case "ast_command":
		cfg.ASTCommand = value
	case "backups.mode":
		cfg.Backups.Mode = value
	case "format":
		cfg.Format = value
	case "color":
		cfg.Color = value
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

// setBoolField sets a boolean field on the config by field path.
func setBoolField(cfg *config.Config, field string, value bool) error {
	switch field {
	case "dry_run":
		cfg.DryRun = value
	case "backups.enabled":
		cfg.Backups.Enabled = &value
	case "no_backups":
		cfg.NoBackups = value
	default:
		return fmt.Errorf("unknown boolean field: %s", field)
	}
	return nil
}

// setIntField sets an integer field on the config by field path.
func setIntField(cfg *config.Config, field string, value int) error {
	switch field {
	case "jobs":
		cfg.Jobs = value
	default:
		return fmt.Errorf("unknown integer field: %s", field)
	}
	return nil
}

// setSliceField sets a slice field on the config by field path.
func setSliceField(cfg *config.Config, field string, value []string) error {
	switch field {
	case "targets":
		cfg.Targets = value
	case "clippy_args":
		cfg.ClippyArgs = value
	case "ignore":
		cfg.Ignore = value
	default:
		return fmt.Errorf("unknown slice field: %s", field)
	}
	return nil
}

// GetEnvVarName returns the full environment variable name for a config field.
func GetEnvVarName(field string) string {
	for suffix, mapping := range envMappings {
		if mapping.field == field {
			return envVarPrefix + suffix
		}
	}
	return ""
}

// ListEnvVars returns all supported environment variables with their descriptions.
func ListEnvVars() map[string]string {
	vars := make(map[string]string, len(envMappings))
	for suffix, mapping := range envMappings {
		vars[envVarPrefix+suffix] = mapping.help
	}
	return vars
}
