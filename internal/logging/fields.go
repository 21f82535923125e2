// Package logging wraps charmbracelet/log for allowfix's structured logs.
package logging

// Field names for structured logging.
const (
	FieldError   = "error"
	FieldPath    = "path"
	FieldLine    = "line"
	FieldInput   = "input"
	FieldCommand = "command"
	FieldConfig  = "config"

	// Run settings.
	FieldStrategy = "strategy"
	FieldRoot     = "root"
	FieldDryRun   = "dry_run"
	FieldTarget   = "target"
	FieldJobs     = "jobs"
	FieldLanguage = "language"

	// Statistics.
	FieldDiagnostics = "diagnostics"
	FieldInserted    = "inserted"
	FieldDuplicates  = "duplicates"
	FieldUnresolved  = "unresolved"
	FieldStale       = "stale"
	FieldMalformed   = "malformed"
	FieldFiles       = "files"

	// Version.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
