package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileMode is used when a write has no mode to preserve.
const DefaultFileMode os.FileMode = 0o644

// WriteAtomic replaces path with content via a temp file in the same
// directory, fsync and rename. On failure the original file is untouched.
func WriteAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if mode == 0 {
		mode = DefaultFileMode
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".allowfix-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	done := false
	defer func() {
		if !done {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	done = true
	return nil
}

// Persist writes content back to the file a snapshot was taken of. It fails
// with ErrModified if the file changed in the meantime, and takes a backup
// first when backups are enabled. It returns the backup path, if one was
// written.
func Persist(ctx context.Context, snap *Snapshot, content []byte, backups BackupConfig) (string, error) {
	changed, err := snap.Changed(ctx)
	if err != nil {
		return "", err
	}
	if changed {
		return "", fmt.Errorf("%w: %s", ErrModified, snap.Path)
	}

	backupPath, err := CreateBackup(ctx, snap.Path, backups)
	if err != nil {
		return "", err
	}

	if err := WriteAtomic(ctx, snap.Path, content, snap.Mode); err != nil {
		return backupPath, err
	}
	return backupPath, nil
}
