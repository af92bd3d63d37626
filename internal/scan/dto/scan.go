package dto

import (
	"time"

	"invoicescan-backend/internal/scan/domain"
)

type CreateScanJobRequest struct {
	AccountID       string     `json:"account_id" binding:"required"`
	JobType         string     `json:"job_type"`
	DateFrom        *time.Time `json:"date_from"`
	DateTo          *time.Time `json:"date_to"`
	SubjectKeywords []string   `json:"subject_keywords"`
	ExcludeKeywords []string   `json:"exclude_keywords"`
	Senders         []string   `json:"senders"`
	MaxEmails       int        `json:"max_emails"`
	AttachmentTypes []string   `json:"attachment_types"`
	ScanBodyLinks   bool       `json:"scan_body_links"`
}

func (r *CreateScanJobRequest) ToParams() *domain.ScanParams {
	return &domain.ScanParams{
		DateFrom:        r.DateFrom,
		DateTo:          r.DateTo,
		SubjectKeywords: r.SubjectKeywords,
		ExcludeKeywords: r.ExcludeKeywords,
		Senders:         r.Senders,
		MaxEmails:       r.MaxEmails,
		AttachmentTypes: r.AttachmentTypes,
		ScanBodyLinks:   r.ScanBodyLinks,
	}
}

type CancelScanJobRequest struct {
	Force  bool   `json:"force"`
	Reason string `json:"reason"`
}

type ScanJobsResponse struct {
	Jobs   []*domain.ScanJob `json:"jobs"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// ConflictResponse is returned when an account already has an active job
type ConflictResponse struct {
	Error         string `json:"error"`
	ExistingJobID string `json:"existing_job_id"`
	Status        string `json:"status"`
	Progress      int    `json:"progress"`
}
