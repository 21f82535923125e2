package fsutil

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// BackupMode specifies how backups are stored.
type BackupMode string

const (
	// BackupModeSidecar stores the backup next to the file, with BackupSuffix.
	BackupModeSidecar BackupMode = "sidecar"

	// BackupModeNone disables backups.
	BackupModeNone BackupMode = "none"
)

// BackupSuffix is appended to a file's path to form its sidecar backup.
const BackupSuffix = ".allowfix.bak"

// BackupConfig controls backup behavior.
type BackupConfig struct {
	Enabled bool
	Mode    BackupMode
}

// DefaultBackupConfig keeps sidecar backups of every rewritten file.
func DefaultBackupConfig() BackupConfig {
	return BackupConfig{Enabled: true, Mode: BackupModeSidecar}
}

// ParseBackupMode parses a backup mode name. The empty string selects sidecar.
func ParseBackupMode(name string) (BackupMode, error) {
	switch mode := BackupMode(strings.ToLower(strings.TrimSpace(name))); mode {
	case "":
		return BackupModeSidecar, nil
	case BackupModeSidecar, BackupModeNone:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown backup mode %q; valid modes: sidecar, none", name)
	}
}

// BackupPath returns where the backup of path is stored, or "" when mode
// keeps none.
func BackupPath(path string, mode BackupMode) string {
	if mode == BackupModeNone {
		return ""
	}
	return path + BackupSuffix
}

// CreateBackup copies path to its backup location. An existing backup is
// never overwritten, so repeated runs keep the oldest content. It returns the
// backup path when one was written.
func CreateBackup(ctx context.Context, path string, cfg BackupConfig) (string, error) {
	if !cfg.Enabled {
		return "", nil
	}
	backupPath := BackupPath(path, cfg.Mode)
	if backupPath == "" {
		return "", nil
	}

	if _, err := os.Stat(backupPath); err == nil {
		return "", nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat backup %s: %w", backupPath, err)
	}

	content, snap, err := Read(ctx, path)
	if err != nil {
		return "", fmt.Errorf("read original for backup: %w", err)
	}

	if err := WriteAtomic(ctx, backupPath, content, snap.Mode); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return backupPath, nil
}
