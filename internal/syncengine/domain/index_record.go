package domain

import (
	"encoding/json"
	"time"
)

// EmailIndexRecord is the local mirror of one remote message.
// Unique on (account, folder, uid). Records are updated in place on
// re-sighting and never deleted by the sync engine.
type EmailIndexRecord struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	AccountID       string    `json:"account_id" gorm:"uniqueIndex:idx_account_folder_uid;index;not null"`
	Folder          string    `json:"folder" gorm:"uniqueIndex:idx_account_folder_uid;not null"`
	UID             uint32    `json:"uid" gorm:"uniqueIndex:idx_account_folder_uid;column:uid;not null"`
	Subject         string    `json:"subject"`
	FromAddress     string    `json:"from_address" gorm:"index"`
	ToAddresses     string    `json:"to_addresses" gorm:"type:text"` // JSON serialized list
	MessageDate     time.Time `json:"message_date" gorm:"index"`
	MessageID       string    `json:"message_id"`
	HasAttachments  bool      `json:"has_attachments" gorm:"index"`
	AttachmentCount int       `json:"attachment_count"`
	AttachmentNames string    `json:"attachment_names" gorm:"type:text"` // JSON serialized list
	Flags           string    `json:"flags" gorm:"type:text"`            // JSON serialized list
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (EmailIndexRecord) TableName() string {
	return "email_index_records"
}

// AttachmentNameList decodes the serialized attachment names
func (r *EmailIndexRecord) AttachmentNameList() []string {
	return decodeStringList(r.AttachmentNames)
}

// FlagList decodes the serialized flags
func (r *EmailIndexRecord) FlagList() []string {
	return decodeStringList(r.Flags)
}

// EncodeStringList serializes a string slice for a text column
func EncodeStringList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
