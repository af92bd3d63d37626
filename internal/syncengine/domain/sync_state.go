package domain

import "time"

// SyncMode represents the synchronization strategy for a mailbox folder
type SyncMode string

const (
	ModeNeverSynced    SyncMode = "never_synced"
	ModeFullInProgress SyncMode = "full_sync_in_progress"
	ModeFullNeeded     SyncMode = "full_sync_needed"
	ModeIncremental    SyncMode = "incremental"
)

// SyncState tracks how far a mailbox folder has been indexed.
// One row per (account, folder). LastSyncedUID is the watermark: the highest
// remote UID known to be indexed, and it never decreases.
type SyncState struct {
	ID                    string     `json:"id" gorm:"primaryKey"`
	AccountID             string     `json:"account_id" gorm:"uniqueIndex:idx_account_folder;not null"`
	Folder                string     `json:"folder" gorm:"uniqueIndex:idx_account_folder;not null"`
	Mode                  SyncMode   `json:"mode" gorm:"default:never_synced"`
	SyncStartDate         time.Time  `json:"sync_start_date"`
	LastSyncedUID         uint32     `json:"last_synced_uid"`
	LastFullSyncAt        *time.Time `json:"last_full_sync_at,omitempty"`
	LastIncrementalSyncAt *time.Time `json:"last_incremental_sync_at,omitempty"`
	TotalEmailsIndexed    int64      `json:"total_emails_indexed"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (SyncState) TableName() string {
	return "sync_states"
}

// FullSyncCompleted reports whether this folder has ever finished a full sweep
func (s *SyncState) FullSyncCompleted() bool {
	return s.LastFullSyncAt != nil
}
