package configloader

import (
	"fmt"
	"strings"

	"github.com/yaklabco/allowfix/pkg/config"
	"github.com/yaklabco/allowfix/pkg/fsutil"
	"github.com/yaklabco/allowfix/pkg/pathglob"
	"github.com/yaklabco/allowfix/pkg/reporter"
	"github.com/yaklabco/allowfix/pkg/resolve"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "backups.mode").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)

	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

func (r *ValidationResult) fail(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *ValidationResult) warn(field string, value any, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	annotation := strings.TrimSpace(cfg.Annotation)
	switch {
	case annotation == "":
		result.fail("annotation", cfg.Annotation, "annotation must not be empty")
	case !strings.HasPrefix(annotation, "#["):
		result.warn("annotation", cfg.Annotation, "annotation %q is not an outer attribute; duplicates will not be detected", annotation)
	}

	if cfg.Lint.Reason == "" {
		result.fail("lint.reason", cfg.Lint.Reason, "lint reason must not be empty")
	}
	if cfg.Lint.Signature == "" {
		result.fail("lint.signature", cfg.Lint.Signature, "lint signature must not be empty")
	}

	if _, err := resolve.ParseStrategy(cfg.Strategy); err != nil {
		result.fail("strategy", cfg.Strategy, "%v", err)
	}

	if _, err := reporter.ParseFormat(cfg.Format); err != nil {
		result.fail("format", cfg.Format, "%v", err)
	}

	switch cfg.Color {
	case "", "auto", "always", "never":
	default:
		result.fail("color", cfg.Color, "invalid color mode %q; must be one of: auto, always, never", cfg.Color)
	}

	if cfg.Jobs < 0 {
		result.fail("jobs", cfg.Jobs, "jobs must be >= 0 (0 means one)")
	}

	if _, err := fsutil.ParseBackupMode(cfg.Backups.Mode); err != nil {
		result.fail("backups.mode", cfg.Backups.Mode, "%v", err)
	}

	for i, pattern := range cfg.Ignore {
		if _, err := pathglob.Compile([]string{pattern}); err != nil {
			result.fail(fmt.Sprintf("ignore[%d]", i), pattern, "invalid glob pattern: %v", err)
		}
	}

	return result
}

// ValidateWithFile validates configuration and includes file path in errors.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)

	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}

	return result
}
