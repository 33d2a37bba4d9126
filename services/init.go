package services

import (
	"github.com/prismateams/mailroom/config"
	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/repository"
	"github.com/prismateams/mailroom/services/attachments"
	"github.com/prismateams/mailroom/services/events"
	"github.com/prismateams/mailroom/services/imap"
	"github.com/prismateams/mailroom/services/smtp"
	"github.com/prismateams/mailroom/services/storage"
	syncpkg "github.com/prismateams/mailroom/services/sync"
)

type Services struct {
	SyncService  *syncpkg.Service
	Sender       *smtp.Sender
	Materializer *attachments.Materializer
	Publisher    interfaces.EventPublisher
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	blobStorage, err := initBlobStorage(cfg.StorageConfig)
	if err != nil {
		return nil, err
	}
	materializer := attachments.NewMaterializer(blobStorage)

	var publisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		publisher, err = events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log)
		if err != nil {
			log.Warnf("event publishing disabled: %v", err)
			publisher = nil
		}
	}

	syncService := syncpkg.NewService(
		log,
		imap.NewClientFactory(cfg.ImapConfig, log),
		repos.FolderRepository,
		repos.EmailRepository,
		repos.EmailAttachmentRepository,
		materializer,
		publisher,
		repos.Session.Reset,
	)

	return &Services{
		SyncService:  syncService,
		Sender:       smtp.NewSender(cfg.SmtpConfig, repos.EmailRepository, log),
		Materializer: materializer,
		Publisher:    publisher,
	}, nil
}

func initBlobStorage(cfg *config.StorageConfig) (interfaces.BlobStorage, error) {
	if cfg.Backend == "s3" {
		return storage.NewS3Storage(cfg.S3Region, cfg.S3AccessKeyID, cfg.S3AccessKeySecret, cfg.S3Bucket)
	}
	return storage.NewLocalStorage(cfg.AttachmentDir)
}
