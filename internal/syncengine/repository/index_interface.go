package repository

import (
	"time"

	"invoicescan-backend/internal/syncengine/domain"
)

// IndexQuery filters the local message index. Date bounds are inclusive.
// Keyword matching is applied by the sync engine on top of this query.
type IndexQuery struct {
	AccountID      string
	Folder         string
	DateFrom       *time.Time
	DateTo         *time.Time
	HasAttachments *bool
}

// EmailIndexRepository defines the interface for the local message index
type EmailIndexRepository interface {
	// Upsert inserts the record when (account, folder, uid) is unseen, or
	// updates subject, flags and date in place. Reports whether a new row
	// was inserted.
	Upsert(record *domain.EmailIndexRecord) (inserted bool, err error)
	// Query returns matching records ordered by message date descending
	Query(q IndexQuery) ([]*domain.EmailIndexRecord, error)
	// CountByAccount returns the number of indexed rows for an account
	CountByAccount(accountID string) (int64, error)
}
