package repository

import (
	"gorm.io/gorm"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/database"
	"github.com/prismateams/mailroom/internal/models"
)

type Repositories struct {
	// Session is the shared gorm handle; resetting it after a lost
	// connection repoints every repository at once.
	Session *database.Session

	FolderRepository          interfaces.FolderRepository
	EmailRepository           interfaces.EmailRepository
	EmailAttachmentRepository interfaces.EmailAttachmentRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	session := database.NewSession(db)
	return &Repositories{
		Session:                   session,
		FolderRepository:          NewFolderRepository(session),
		EmailRepository:           NewEmailRepository(session),
		EmailAttachmentRepository: NewEmailAttachmentRepository(session),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Folder{},
		&models.Email{},
		&models.EmailAttachment{},
	)
}
