package interfaces

import (
	"context"

	"github.com/prismateams/mailroom/internal/models"
)

type FolderRepository interface {
	GetAll(ctx context.Context) ([]models.Folder, error)
	GetByName(ctx context.Context, name string) (*models.Folder, error)
	Create(ctx context.Context, folder *models.Folder) error
	Update(ctx context.Context, folder *models.Folder) error
	DeleteByNames(ctx context.Context, names []string) (int64, error)
}

type EmailRepository interface {
	GetByID(ctx context.Context, id string) (*models.Email, error)
	GetByFolderAndUID(ctx context.Context, folder string, uid uint32) (*models.Email, error)

	// GetByMessageIDInOtherFolder finds a copy of the same logical message
	// outside the given folder, used for move detection.
	GetByMessageIDInOtherFolder(ctx context.Context, messageID, excludeFolder string) (*models.Email, error)

	// GetAllByFolder returns every locally stored row for a folder including
	// tombstoned ones, ordered by uid.
	GetAllByFolder(ctx context.Context, folder string) ([]models.Email, error)

	CountByFolder(ctx context.Context, folder string) (int64, error)

	ListByFolder(ctx context.Context, folder string, limit, offset int) ([]models.Email, error)
	Create(ctx context.Context, email *models.Email) error
	Update(ctx context.Context, email *models.Email) error
	Delete(ctx context.Context, id string) error

	// MarkSynced refreshes the last-sync timestamp and clears the tombstone
	// flag without touching any other column.
	MarkSynced(ctx context.Context, id string) error
}

type EmailAttachmentRepository interface {
	Create(ctx context.Context, attachment *models.EmailAttachment) error
	GetByID(ctx context.Context, id string) (*models.EmailAttachment, error)
	GetByEmailID(ctx context.Context, emailID string) ([]models.EmailAttachment, error)
}
