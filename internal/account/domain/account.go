package domain

import "time"

// EmailAccount is a mailbox the scanner is allowed to index.
// The IMAP password is stored encrypted; decryption happens just before connecting.
type EmailAccount struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"index;not null"`
	EmailAddress      string    `json:"email_address" gorm:"not null"`
	IMAPHost          string    `json:"imap_host" gorm:"not null"`
	IMAPPort          int       `json:"imap_port" gorm:"default:993"`
	UseTLS            bool      `json:"use_tls" gorm:"default:true"`
	PasswordEncrypted string    `json:"-" gorm:"not null"`
	Active            bool      `json:"active" gorm:"default:true"`
	SyncStartDate     time.Time `json:"sync_start_date"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (EmailAccount) TableName() string {
	return "email_accounts"
}
