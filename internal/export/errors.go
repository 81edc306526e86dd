package export

import (
	"errors"
	"fmt"
)

// ============================================================
// Export error taxonomy
// ============================================================

var (
	// ErrMissingPlan means there is nothing to export; callers must
	// surface it rather than produce a blank file.
	ErrMissingPlan = errors.New("no plan to export")

	// ErrRenderTimeout means rasterization exceeded its bounded wait.
	// The export may be retried.
	ErrRenderTimeout = errors.New("render timed out")

	// ErrDownloadDenied means the download sink refused the finished
	// blob. The artifact was produced; only the handoff failed.
	ErrDownloadDenied = errors.New("download denied by sink")
)

// SerializationError wraps a format-specific encode failure.
type SerializationError struct {
	Format string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
