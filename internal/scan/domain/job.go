package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// JobKind classifies how a scan job was triggered
type JobKind string

const (
	KindManual      JobKind = "manual"
	KindScheduled   JobKind = "scheduled"
	KindIncremental JobKind = "incremental"
)

// JobStatus represents the lifecycle state of a scan job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Active reports whether the status counts against the one-active-job-per-account rule
func (s JobStatus) Active() bool {
	return s == StatusPending || s == StatusRunning
}

// Terminal reports whether the job can never transition again
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ScanJob is the unit-of-work record for one mailbox scan and its outcome
type ScanJob struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	CorrelationID  string    `json:"correlation_id" gorm:"index"`
	UserID         string    `json:"user_id" gorm:"index;not null"`
	EmailAccountID string    `json:"email_account_id" gorm:"index:idx_jobs_account_status;not null"`
	Kind           JobKind   `json:"kind" gorm:"default:manual"`
	Status         JobStatus `json:"status" gorm:"index:idx_jobs_account_status;default:pending"`
	Progress       int       `json:"progress"`
	CurrentStep    string    `json:"current_step"`

	Params string `json:"-" gorm:"type:text"` // JSON serialized ScanParams

	// Result summary: typed counters plus the audit payload as-is
	EmailsFound   int            `json:"emails_found"`
	EmailsScanned int            `json:"emails_scanned"`
	LinksFound    int            `json:"links_found"`
	Results       datatypes.JSON `json:"results,omitempty"`

	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (ScanJob) TableName() string {
	return "scan_jobs"
}

// ScanParamsValue decodes the serialized filter configuration
func (j *ScanJob) ScanParamsValue() (*ScanParams, error) {
	var params ScanParams
	if j.Params == "" {
		return &params, nil
	}
	if err := json.Unmarshal([]byte(j.Params), &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// SetScanParams serializes the filter configuration onto the job row
func (j *ScanJob) SetScanParams(params *ScanParams) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	j.Params = string(data)
	return nil
}
