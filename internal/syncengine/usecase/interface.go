package usecase

import (
	"context"
	"time"

	accountdomain "invoicescan-backend/internal/account/domain"
	"invoicescan-backend/internal/syncengine/domain"
)

// SyncOptions narrows what a single synchronization run looks at
type SyncOptions struct {
	Folder          string
	DateFrom        *time.Time
	DateTo          *time.Time
	SubjectKeywords []string
	Senders         []string
}

// SyncOutcome summarizes one synchronization run
type SyncOutcome struct {
	Mode      domain.SyncMode
	Processed int
	Inserted  int
	Watermark uint32
}

// IndexFilter is the local index query surface exposed to callers
type IndexFilter struct {
	Folder          string
	DateFrom        *time.Time
	DateTo          *time.Time
	SubjectKeywords []string
	ExcludeKeywords []string
	HasAttachments  *bool
	Limit           int
}

// Engine keeps the local index of a mailbox up to date and answers
// queries against it
type Engine interface {
	// SyncAccount runs a full or incremental sweep depending on the
	// folder's sync mode
	SyncAccount(ctx context.Context, account *accountdomain.EmailAccount, password string, opts SyncOptions) (*SyncOutcome, error)
	// SearchIndex is a pure local query over the mirrored metadata
	SearchIndex(ctx context.Context, accountID string, filter IndexFilter) ([]*domain.EmailIndexRecord, error)
	// FullSyncCompleted reports whether the folder ever finished a full sweep
	FullSyncCompleted(accountID, folder string) (bool, error)
}
