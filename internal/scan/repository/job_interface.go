package repository

import "invoicescan-backend/internal/scan/domain"

// JobFilter narrows job listings
type JobFilter struct {
	UserID    string
	AccountID string
	Status    *domain.JobStatus
	Limit     int
	Offset    int
}

// ScanJobRepository defines the interface for scan job persistence
type ScanJobRepository interface {
	// CreateIfNoActive atomically checks the one-active-job-per-account rule
	// and persists the job. On conflict it returns the existing active job
	// and does not write anything.
	CreateIfNoActive(job *domain.ScanJob) (existing *domain.ScanJob, err error)
	FindByID(id string) (*domain.ScanJob, error)
	List(filter JobFilter) ([]*domain.ScanJob, int64, error)
	ListByStatus(status domain.JobStatus) ([]*domain.ScanJob, error)
	ListRunningByAccount(accountID string) ([]*domain.ScanJob, error)
	// UpdateFields applies a partial update and commits it
	UpdateFields(id string, fields map[string]interface{}) error
	// UpdateFieldsWhereStatus applies a partial update only when the job is
	// still in the expected status. Reports whether a row was changed, so a
	// late commit cannot overwrite a sweep or a cancellation.
	UpdateFieldsWhereStatus(id string, expected domain.JobStatus, fields map[string]interface{}) (bool, error)
	Delete(id string) error
}
