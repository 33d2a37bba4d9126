package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/prismateams/mailroom/internal/utils"
)

// EmailAttachment belongs to exactly one email and is cascade-deleted with
// it. Either Content (small payloads) or StoragePath (large payloads) is set,
// never both; IsLargeFile tells the two apart.
type EmailAttachment struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	EmailID     string `gorm:"column:email_id;type:varchar(50);index;not null" json:"emailId"`
	Filename    string `gorm:"column:filename;type:varchar(500)" json:"filename"`
	ContentType string `gorm:"column:content_type;type:varchar(255)" json:"contentType"`
	Size        int    `gorm:"column:size;default:0" json:"size"`

	Content     []byte `gorm:"column:content;type:bytea" json:"-"`
	StoragePath string `gorm:"column:storage_path;type:varchar(1000)" json:"storagePath"`
	IsLargeFile bool   `gorm:"column:is_large_file;default:false" json:"isLargeFile"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (EmailAttachment) TableName() string {
	return "email_attachments"
}

func (a *EmailAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("file", 12)
	}
	a.CreatedAt = utils.Now()
	return nil
}
