package domain

import "time"

const (
	// MaxSubjectKeywords is a product constraint: one keyword per scan
	MaxSubjectKeywords = 1
	MaxExcludeKeywords = 50
)

// ScanParams is the filter configuration for one scan job.
// Validated at the boundary before a job row is written.
type ScanParams struct {
	DateFrom        *time.Time `json:"date_from,omitempty"`
	DateTo          *time.Time `json:"date_to,omitempty"`
	SubjectKeywords []string   `json:"subject_keywords,omitempty"`
	ExcludeKeywords []string   `json:"exclude_keywords,omitempty"`
	Senders         []string   `json:"senders,omitempty"`
	MaxEmails       int        `json:"max_emails,omitempty"`
	AttachmentTypes []string   `json:"attachment_types,omitempty"`
	ScanBodyLinks   bool       `json:"scan_body_links,omitempty"`
}

// Validate rejects malformed filter configurations
func (p *ScanParams) Validate() error {
	if len(p.SubjectKeywords) > MaxSubjectKeywords {
		return &ValidationError{Field: "subject_keywords", Reason: "at most one subject keyword is allowed"}
	}
	if len(p.ExcludeKeywords) > MaxExcludeKeywords {
		return &ValidationError{Field: "exclude_keywords", Reason: "at most 50 exclude keywords are allowed"}
	}
	if p.DateFrom != nil && p.DateTo != nil && p.DateFrom.After(*p.DateTo) {
		return &ValidationError{Field: "date_from", Reason: "date_from must not be after date_to"}
	}
	if p.MaxEmails < 0 {
		return &ValidationError{Field: "max_emails", Reason: "max_emails must not be negative"}
	}
	return nil
}
