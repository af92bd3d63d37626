package domain

import "fmt"

// ValidationError rejects a bad filter shape before any job row is written
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid scan params: %s: %s", e.Field, e.Reason)
}

// ConflictError rejects a duplicate active job and carries the identity of
// the job that is already pending or running
type ConflictError struct {
	JobID    string
	Status   JobStatus
	Progress int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a scan job is already active for this account (job %s, status %s, progress %d%%)",
		e.JobID, e.Status, e.Progress)
}

// ProcessingError wraps any uncaught failure during job execution.
// It is converted into a terminal failed state at the orchestrator boundary.
type ProcessingError struct {
	JobID string
	Step  string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("scan job %s failed at step %q: %v", e.JobID, e.Step, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
