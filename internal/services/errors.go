package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyLocked signals that another run holds the target lock.
	ErrAlreadyLocked = errors.New("already locked")
	// ErrExternalTool signals a failure reported by an invoked binary.
	ErrExternalTool = errors.New("external tool error")
	// ErrSyncFailed signals that the remote sync step did not complete.
	ErrSyncFailed = errors.New("sync failed")
	// ErrFilesystem signals an unexpected local filesystem failure.
	ErrFilesystem = errors.New("filesystem error")
	// ErrConfiguration signals invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation signals malformed input that should not be retried.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the remainder of a run rather
// than be recorded against a single archive. Lock contention, configuration
// problems, and sync failures stop the pipeline; everything else is local.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAlreadyLocked),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrSyncFailed):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
