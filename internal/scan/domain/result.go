package domain

import "time"

// DocumentLink is a confidence-scored candidate found in a message body
type DocumentLink struct {
	Source     string  `json:"source"` // "body_link" or "attachment"
	URL        string  `json:"url,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ResultEmail is the per-email entry in the result summary
type ResultEmail struct {
	UID             uint32         `json:"uid"`
	Subject         string         `json:"subject"`
	From            string         `json:"from"`
	Date            time.Time      `json:"date"`
	HasAttachments  bool           `json:"has_attachments"`
	AttachmentNames []string       `json:"attachment_names,omitempty"`
	DocumentLinks   []DocumentLink `json:"document_links,omitempty"`
	Relevance       float64        `json:"relevance,omitempty"`
}

// ResultSummary is the audit payload persisted on a completed job
type ResultSummary struct {
	TotalMatched    int           `json:"total_matched"`
	WithAttachments int           `json:"with_attachments"`
	BodiesScanned   int           `json:"bodies_scanned"`
	LinksFound      int           `json:"links_found"`
	Emails          []ResultEmail `json:"emails"`
	Errors          []string      `json:"errors,omitempty"`
}
