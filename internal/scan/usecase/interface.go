package usecase

import (
	"context"
	"time"

	"invoicescan-backend/internal/scan/domain"
	"invoicescan-backend/internal/scan/repository"
)

// JobProgress is the polling read surface for one job
type JobProgress struct {
	JobID         string           `json:"job_id"`
	Status        domain.JobStatus `json:"status"`
	Progress      int              `json:"progress"`
	CurrentStep   string           `json:"current_step"`
	EmailsFound   int              `json:"emails_found"`
	EmailsScanned int              `json:"emails_scanned"`
	LinksFound    int              `json:"links_found"`
	ErrorMessage  string           `json:"error_message,omitempty"`
}

// ScanJobUsecase owns the scan job lifecycle
type ScanJobUsecase interface {
	// CreateJob validates ownership and params, sweeps stuck jobs for the
	// account, enforces the one-active-job rule and persists a pending job
	CreateJob(ctx context.Context, userID, accountID string, kind domain.JobKind, params *domain.ScanParams) (*domain.ScanJob, error)
	// Execute runs a pending job to a terminal state
	Execute(ctx context.Context, jobID string) error
	// Cancel marks a pending or running job cancelled. It does not preempt
	// an in-flight synchronization step.
	Cancel(ctx context.Context, jobID string, force bool, reason string) error
	// Retry resets a failed job to pending and triggers execution again
	Retry(ctx context.Context, jobID string) error
	// CleanupStuckJobs fails running jobs that exceeded the wall-clock
	// timeout or stagnated below half progress. Returns how many were failed.
	CleanupStuckJobs(timeout, stagnation time.Duration) (int, error)
	// DeleteJob hard-deletes a job that is not running
	DeleteJob(ctx context.Context, jobID string) error
	GetJob(ctx context.Context, jobID string) (*domain.ScanJob, error)
	GetProgress(ctx context.Context, jobID string) (*JobProgress, error)
	ListJobs(ctx context.Context, filter repository.JobFilter) ([]*domain.ScanJob, int64, error)
}
