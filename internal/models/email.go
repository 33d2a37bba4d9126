package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/prismateams/mailroom/internal/utils"
)

// Email represents one message in one folder. The (folder, imap_uid) pair is
// unique for synced rows; locally composed rows carry a NULL imap_uid, which
// Postgres treats as distinct, so any number of them can share a folder.
// message_id is globally unique when the server provides it but is
// deliberately not a unique index because the same logical message appears in
// two folders transiently while it is being moved.
type Email struct {
	ID        string  `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	MessageID string  `gorm:"column:message_id;type:varchar(255);index;not null" json:"messageId"`
	Folder    string  `gorm:"column:folder;type:varchar(255);not null;uniqueIndex:idx_emails_folder_uid" json:"folder"`
	ImapUID   *uint32 `gorm:"column:imap_uid;uniqueIndex:idx_emails_folder_uid" json:"imapUid"`

	// Core metadata
	Subject     string         `gorm:"column:subject;type:varchar(1000)" json:"subject"`
	FromAddress string         `gorm:"column:from_address;type:varchar(500);index" json:"fromAddress"`
	ToAddresses pq.StringArray `gorm:"column:to_addresses;type:text[]" json:"toAddresses"`
	CcAddresses pq.StringArray `gorm:"column:cc_addresses;type:text[]" json:"ccAddresses"`

	// Content
	BodyText      string `gorm:"column:body_text;type:text" json:"bodyText"`
	BodyHTML      string `gorm:"column:body_html;type:text" json:"bodyHtml"`
	HasAttachment bool   `gorm:"column:has_attachment;default:false" json:"hasAttachment"`

	// Sync bookkeeping
	ReceivedAt      *time.Time `gorm:"column:received_at;type:timestamp;index" json:"receivedAt"`
	LastSyncedAt    *time.Time `gorm:"column:last_synced_at;type:timestamp" json:"lastSyncedAt"`
	DeletedOnServer bool       `gorm:"column:deleted_on_server;default:false;index" json:"deletedOnServer"`

	// Outbound flow
	Outbound bool       `gorm:"column:outbound;default:false" json:"outbound"`
	SentAt   *time.Time `gorm:"column:sent_at;type:timestamp" json:"sentAt"`

	Attachments []EmailAttachment `gorm:"foreignKey:EmailID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Email) TableName() string {
	return "emails"
}

func (e *Email) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("email", 24)
	}
	e.CreatedAt = utils.Now()
	return nil
}
