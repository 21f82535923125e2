package cli

import (
	"errors"
	"os"

	"github.com/yaklabco/allowfix/internal/configloader"
	"github.com/yaklabco/allowfix/pkg/cargo"
	"github.com/yaklabco/allowfix/pkg/fsutil"
	"github.com/yaklabco/allowfix/pkg/runner"
)

// Exit codes for allowfix.
const (
	// ExitSuccess indicates a completed run, whatever number of annotations it added.
	ExitSuccess = 0

	// ExitCheckFailed indicates at least one target failed to build.
	ExitCheckFailed = 1

	// ExitInvalidLine indicates a diagnostic pointed past the end of its file.
	ExitInvalidLine = 3

	// ExitSubprocess indicates cargo or rustc failed.
	ExitSubprocess = 4

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

var (
	// ErrUsage marks invalid flags or arguments.
	ErrUsage = errors.New("invalid usage")

	// ErrConfig marks an unusable configuration.
	ErrConfig = errors.New("invalid configuration")

	// ErrInput marks a diagnostic stream that could not be read to the end.
	ErrInput = errors.New("unreadable diagnostic stream")

	// ErrCheckFailed is returned when a target fails to build.
	ErrCheckFailed = errors.New("target check failed")
)

// ExitCodeFromError maps an error returned by a command to a process exit code.
func ExitCodeFromError(err error) int {
	var validationErr *configloader.ValidationError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, runner.ErrInvalidLine):
		return ExitInvalidLine
	case errors.Is(err, cargo.ErrSubprocess):
		return ExitSubprocess
	case errors.Is(err, ErrCheckFailed):
		return ExitCheckFailed
	case errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.Is(err, ErrConfig), errors.As(err, &validationErr):
		return ExitConfigError
	case errors.Is(err, ErrInput),
		errors.Is(err, runner.ErrWriteFailure),
		errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory),
		errors.Is(err, fsutil.ErrModified),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, os.ErrPermission):
		return ExitIOError
	default:
		return ExitInternalError
	}
}
