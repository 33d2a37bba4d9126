package sync

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/services/attachments"
)

// Fetch windows. System folders are polled often so they get a small window;
// custom folders are visited less predictably and get a deeper one.
const (
	systemFolderWindow = 50
	customFolderWindow = 200
)

const (
	EventSyncCompleted = "sync.completed"
	EventEmailStored   = "email.stored"
)

type Service struct {
	log           logger.Logger
	clientFactory interfaces.MailClientFactory
	folders       interfaces.FolderRepository
	emails        interfaces.EmailRepository
	attachmentsDB interfaces.EmailAttachmentRepository
	materializer  *attachments.Materializer
	publisher     interfaces.EventPublisher

	// resetSession reestablishes the storage session after a lost
	// connection. The failed item is abandoned, never retried.
	resetSession func()
}

func NewService(
	log logger.Logger,
	clientFactory interfaces.MailClientFactory,
	folders interfaces.FolderRepository,
	emails interfaces.EmailRepository,
	attachmentsDB interfaces.EmailAttachmentRepository,
	materializer *attachments.Materializer,
	publisher interfaces.EventPublisher,
	resetSession func(),
) *Service {
	return &Service{
		log:           log,
		clientFactory: clientFactory,
		folders:       folders,
		emails:        emails,
		attachmentsDB: attachmentsDB,
		materializer:  materializer,
		publisher:     publisher,
		resetSession:  resetSession,
	}
}

// SyncAll runs one full pass: mirror the server's folder list, then
// reconcile and fetch messages folder by folder. A connection or login
// failure aborts the whole pass; a single folder's failure does not.
func (s *Service) SyncAll(ctx context.Context) (*Stats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.SyncAll")
	defer span.Finish()
	tracing.TagComponentService(span)

	client, err := s.clientFactory.Connect(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "sync aborted")
	}
	defer client.Logout()

	stats := &Stats{}

	folderStats, err := s.syncFolders(ctx, client)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "folder sync failed")
	}
	stats.Add(folderStats)

	// Iterate the local records rather than the listing, so folders the
	// server stopped reporting are still visited until they empty out.
	localFolders, err := s.folders.GetAll(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to load folders")
	}

	for _, folder := range localFolders {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		folderStats := s.syncMessages(ctx, client, folder.Name)
		stats.Add(folderStats)
	}

	s.log.Infof("sync pass complete: %s", stats.Summary())
	span.LogFields(tracingLog.String("summary", stats.Summary()))

	s.publish(ctx, EventSyncCompleted, map[string]interface{}{
		"summary": stats.Summary(),
		"folders": stats.FoldersSeen,
		"new":     stats.NewMessages,
		"errors":  stats.Errors,
	})

	return stats, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.log.Warnf("failed to publish %s event: %v", eventType, err)
	}
}
