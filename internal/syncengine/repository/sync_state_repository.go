package repository

import (
	"errors"
	"time"

	"invoicescan-backend/internal/syncengine/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormSyncStateRepository implements SyncStateRepository using GORM
type gormSyncStateRepository struct {
	db *gorm.DB
}

// NewSyncStateRepository creates a new GORM-based SyncStateRepository
func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &gormSyncStateRepository{db: db}
}

func (r *gormSyncStateRepository) GetOrCreate(accountID, folder string, syncStart time.Time) (*domain.SyncState, error) {
	var state domain.SyncState
	now := time.Now()
	// Only the unique key goes into the query conditions; everything
	// else is create-only so an existing row is matched, not re-inserted.
	result := r.db.Where(domain.SyncState{AccountID: accountID, Folder: folder}).
		Attrs(domain.SyncState{
			ID:            uuid.New().String(),
			Mode:          domain.ModeNeverSynced,
			SyncStartDate: syncStart,
			CreatedAt:     now,
			UpdatedAt:     now,
		}).
		FirstOrCreate(&state)
	if result.Error != nil {
		return nil, result.Error
	}
	return &state, nil
}

func (r *gormSyncStateRepository) Get(accountID, folder string) (*domain.SyncState, error) {
	var state domain.SyncState
	err := r.db.Where("account_id = ? AND folder = ?", accountID, folder).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *gormSyncStateRepository) Update(state *domain.SyncState) error {
	state.UpdatedAt = time.Now()
	return r.db.Save(state).Error
}
