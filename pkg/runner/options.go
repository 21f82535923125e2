// Package runner applies suppression annotations for a stream of analyzer
// diagnostics, one file at a time.
package runner

import "github.com/yaklabco/allowfix/pkg/fsutil"

// DefaultRoot is the project-root prefix joined to the paths cargo reports.
const DefaultRoot = "charlotte_core"

// Options controls a run.
type Options struct {
	// Root is joined to every relative diagnostic path. Empty means DefaultRoot;
	// use "." for paths that are already relative to the working directory.
	Root string

	// Ignore lists glob patterns of files never edited. Patterns are matched
	// against both the reported and the root-joined path.
	Ignore []string

	// DryRun computes every annotation and its diff without writing.
	DryRun bool

	// Backups controls the backup taken before each write.
	Backups fsutil.BackupConfig
}

// DefaultOptions returns options with the default root and sidecar backups.
func DefaultOptions() Options {
	return Options{
		Root:    DefaultRoot,
		Backups: fsutil.DefaultBackupConfig(),
	}
}

func (o Options) effectiveRoot() string {
	if o.Root == "" {
		return DefaultRoot
	}
	return o.Root
}
