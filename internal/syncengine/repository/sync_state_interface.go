package repository

import (
	"time"

	"invoicescan-backend/internal/syncengine/domain"
)

// SyncStateRepository defines the interface for per-folder sync watermarks
type SyncStateRepository interface {
	// GetOrCreate returns the sync state for (account, folder), creating it
	// lazily in never_synced mode on first sight
	GetOrCreate(accountID, folder string, syncStart time.Time) (*domain.SyncState, error)
	// Get returns the sync state or nil when the folder was never synced
	Get(accountID, folder string) (*domain.SyncState, error)
	Update(state *domain.SyncState) error
}
