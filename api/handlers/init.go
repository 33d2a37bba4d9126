package handlers

import (
	"github.com/prismateams/mailroom/internal/repository"
	"github.com/prismateams/mailroom/services"
)

type APIHandlers struct {
	Sync        *SyncHandler
	Emails      *EmailsHandler
	Folders     *FoldersHandler
	Attachments *AttachmentsHandler
}

func InitHandlers(s *services.Services, repos *repository.Repositories) *APIHandlers {
	return &APIHandlers{
		Sync:        NewSyncHandler(s.SyncService),
		Emails:      NewEmailsHandler(s, repos),
		Folders:     NewFoldersHandler(repos),
		Attachments: NewAttachmentsHandler(s.Materializer, repos),
	}
}
