package repository

import (
	"time"

	"invoicescan-backend/internal/syncengine/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormEmailIndexRepository implements EmailIndexRepository using GORM
type gormEmailIndexRepository struct {
	db *gorm.DB
}

// NewEmailIndexRepository creates a new GORM-based EmailIndexRepository
func NewEmailIndexRepository(db *gorm.DB) EmailIndexRepository {
	return &gormEmailIndexRepository{db: db}
}

func (r *gormEmailIndexRepository) Upsert(record *domain.EmailIndexRecord) (bool, error) {
	now := time.Now()
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = now
	record.UpdatedAt = now

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "folder"}, {Name: "uid"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// Re-sighting: update mutable metadata in place, keep identity columns
	err := r.db.Model(&domain.EmailIndexRecord{}).
		Where("account_id = ? AND folder = ? AND uid = ?", record.AccountID, record.Folder, record.UID).
		Updates(map[string]interface{}{
			"subject":          record.Subject,
			"flags":            record.Flags,
			"message_date":     record.MessageDate,
			"from_address":     record.FromAddress,
			"to_addresses":     record.ToAddresses,
			"message_id":       record.MessageID,
			"has_attachments":  record.HasAttachments,
			"attachment_count": record.AttachmentCount,
			"attachment_names": record.AttachmentNames,
			"updated_at":       now,
		}).Error
	return false, err
}

func (r *gormEmailIndexRepository) Query(q IndexQuery) ([]*domain.EmailIndexRecord, error) {
	query := r.db.Model(&domain.EmailIndexRecord{}).Where("account_id = ?", q.AccountID)

	if q.Folder != "" {
		query = query.Where("folder = ?", q.Folder)
	}
	if q.DateFrom != nil {
		query = query.Where("message_date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("message_date <= ?", *q.DateTo)
	}
	if q.HasAttachments != nil {
		query = query.Where("has_attachments = ?", *q.HasAttachments)
	}

	var records []*domain.EmailIndexRecord
	err := query.Order("message_date DESC").Find(&records).Error
	return records, err
}

func (r *gormEmailIndexRepository) CountByAccount(accountID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.EmailIndexRecord{}).Where("account_id = ?", accountID).Count(&count).Error
	return count, err
}
