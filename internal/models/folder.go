package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/prismateams/mailroom/internal/utils"
)

// Folder mirrors a server-side IMAP folder. The server-assigned name uniquely
// identifies a folder.
type Folder struct {
	ID             string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Name           string    `gorm:"column:name;type:varchar(255);uniqueIndex;not null" json:"name"`
	DisplayName    string    `gorm:"column:display_name;type:varchar(255)" json:"displayName"`
	IsSystemFolder bool      `gorm:"column:is_system_folder;default:false" json:"isSystemFolder"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Folder) TableName() string {
	return "folders"
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = utils.GenerateNanoIDWithPrefix("folder", 12)
	}
	f.CreatedAt = utils.Now()
	return nil
}

// SystemFolderNames are the well-known server folders; everything else is a
// user-created custom folder.
var SystemFolderNames = []string{"INBOX", "Drafts", "Sent", "Archive", "Trash", "Spam"}

func IsSystemFolderName(name string) bool {
	for _, n := range SystemFolderNames {
		if n == name {
			return true
		}
	}
	return false
}
