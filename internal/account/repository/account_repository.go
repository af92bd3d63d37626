package repository

import (
	"time"

	"invoicescan-backend/internal/account/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormEmailAccountRepository implements EmailAccountRepository using GORM
type gormEmailAccountRepository struct {
	db *gorm.DB
}

// NewEmailAccountRepository creates a new GORM-based EmailAccountRepository
func NewEmailAccountRepository(db *gorm.DB) EmailAccountRepository {
	return &gormEmailAccountRepository{db: db}
}

func (r *gormEmailAccountRepository) Create(account *domain.EmailAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.SyncStartDate.IsZero() {
		account.SyncStartDate = time.Now().AddDate(-1, 0, 0)
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	return r.db.Create(account).Error
}

func (r *gormEmailAccountRepository) FindByID(id string) (*domain.EmailAccount, error) {
	var account domain.EmailAccount
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *gormEmailAccountRepository) FindByUserID(userID string) ([]*domain.EmailAccount, error) {
	var accounts []*domain.EmailAccount
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

func (r *gormEmailAccountRepository) Update(account *domain.EmailAccount) error {
	account.UpdatedAt = time.Now()
	return r.db.Save(account).Error
}
