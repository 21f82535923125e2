package configloader

import "github.com/yaklabco/allowfix/pkg/config"

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - Slices: override replaces base entirely if override is non-nil
//   - Booleans: only true overrides; backups.enabled is a pointer so a file
//     can switch backups off
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base

	mergeString(&result.Annotation, override.Annotation)
	mergeString(&result.Lint.Reason, override.Lint.Reason)
	mergeString(&result.Lint.Signature, override.Lint.Signature)
	mergeString(&result.Strategy, override.Strategy)
	mergeString(&result.Root, override.Root)
	mergeString(&result.ManifestPath, override.ManifestPath)
	mergeString(&result.Target, override.Target)
	mergeString(&result.ASTCommand, override.ASTCommand)
	mergeString(&result.Backups.Mode, override.Backups.Mode)
	mergeString(&result.Format, override.Format)
	mergeString(&result.Color, override.Color)
	mergeString(&result.Input, override.Input)

	if override.Jobs != 0 {
		result.Jobs = override.Jobs
	}

	if override.Backups.Enabled != nil {
		enabled := *override.Backups.Enabled
		result.Backups.Enabled = &enabled
	}
	if override.DryRun {
		result.DryRun = true
	}
	if override.NoBackups {
		result.NoBackups = true
	}

	if override.Targets != nil {
		result.Targets = override.Targets
	}
	if override.ClippyArgs != nil {
		result.ClippyArgs = override.ClippyArgs
	}
	if override.Ignore != nil {
		result.Ignore = override.Ignore
	}

	return &result
}

func mergeString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
