package repository

import "invoicescan-backend/internal/account/domain"

// EmailAccountRepository defines the interface for email account persistence
type EmailAccountRepository interface {
	Create(account *domain.EmailAccount) error
	FindByID(id string) (*domain.EmailAccount, error)
	FindByUserID(userID string) ([]*domain.EmailAccount, error)
	Update(account *domain.EmailAccount) error
}
