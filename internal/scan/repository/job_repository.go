package repository

import (
	"errors"
	"time"

	"invoicescan-backend/internal/scan/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormScanJobRepository implements ScanJobRepository using GORM
type gormScanJobRepository struct {
	db *gorm.DB
}

// NewScanJobRepository creates a new GORM-based ScanJobRepository
func NewScanJobRepository(db *gorm.DB) ScanJobRepository {
	return &gormScanJobRepository{db: db}
}

func (r *gormScanJobRepository) CreateIfNoActive(job *domain.ScanJob) (*domain.ScanJob, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CorrelationID == "" {
		job.CorrelationID = uuid.New().String()
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	var existing *domain.ScanJob
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent creations for the same account so the
		// check below cannot race (postgres only; sqlite serializes writes)
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", job.EmailAccountID).Error; err != nil {
				return err
			}
		}

		var active domain.ScanJob
		err := tx.Where("email_account_id = ? AND status IN ?",
			job.EmailAccountID, []domain.JobStatus{domain.StatusPending, domain.StatusRunning}).
			First(&active).Error
		if err == nil {
			existing = &active
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(job).Error
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *gormScanJobRepository) FindByID(id string) (*domain.ScanJob, error) {
	var job domain.ScanJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *gormScanJobRepository) List(filter JobFilter) ([]*domain.ScanJob, int64, error) {
	var jobs []*domain.ScanJob
	var total int64

	query := r.db.Model(&domain.ScanJob{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.AccountID != "" {
		query = query.Where("email_account_id = ?", filter.AccountID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Order("created_at DESC").Offset(filter.Offset).Find(&jobs).Error
	return jobs, total, err
}

func (r *gormScanJobRepository) ListByStatus(status domain.JobStatus) ([]*domain.ScanJob, error) {
	var jobs []*domain.ScanJob
	err := r.db.Where("status = ?", status).Find(&jobs).Error
	return jobs, err
}

func (r *gormScanJobRepository) ListRunningByAccount(accountID string) ([]*domain.ScanJob, error) {
	var jobs []*domain.ScanJob
	err := r.db.Where("email_account_id = ? AND status = ?", accountID, domain.StatusRunning).Find(&jobs).Error
	return jobs, err
}

func (r *gormScanJobRepository) UpdateFields(id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&domain.ScanJob{}).Where("id = ?", id).Updates(fields).Error
}

func (r *gormScanJobRepository) UpdateFieldsWhereStatus(id string, expected domain.JobStatus, fields map[string]interface{}) (bool, error) {
	fields["updated_at"] = time.Now()
	result := r.db.Model(&domain.ScanJob{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormScanJobRepository) Delete(id string) error {
	return r.db.Delete(&domain.ScanJob{}, "id = ?", id).Error
}
