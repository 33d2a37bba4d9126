package sync

import (
	"context"
	"sort"

	"github.com/opentracing/opentracing-go"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/database"
	"github.com/prismateams/mailroom/internal/models"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/internal/utils"
)

// syncMessages runs the per-folder state machine: select, enumerate,
// reconcile removals, then fetch the bounded window of newest messages.
// Every failure here is contained to the folder or the single message.
func (s *Service) syncMessages(ctx context.Context, client interfaces.MailClient, folder string) Stats {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.syncMessages")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagFolder(span, folder)

	stats := Stats{}

	if _, err := client.Select(ctx, folder); err != nil {
		s.log.Errorf("failed to select folder %s: %v", folder, err)
		tracing.TraceErr(span, err)
		stats.Errors++
		return stats
	}

	uids, err := client.SearchAllUIDs(ctx)
	if err != nil {
		s.log.Errorf("failed to enumerate folder %s: %v", folder, err)
		tracing.TraceErr(span, err)
		stats.Errors++
		return stats
	}

	s.reconcile(ctx, folder, uids, &stats)

	for _, uid := range fetchWindow(folder, uids) {
		if ctx.Err() != nil {
			return stats
		}
		s.syncOne(ctx, client, folder, uid, &stats)
	}

	return stats
}

// reconcile handles local rows whose uid is no longer in the server
// listing. Removal is two-phase: a row is tombstoned on the first sync that
// misses it and purged on the next, unless the same message surfaced in
// another folder in the meantime, which means it was moved.
func (s *Service) reconcile(ctx context.Context, folder string, serverUIDs []uint32, stats *Stats) {
	onServer := make(map[uint32]struct{}, len(serverUIDs))
	for _, uid := range serverUIDs {
		onServer[uid] = struct{}{}
	}

	local, err := s.emails.GetAllByFolder(ctx, folder)
	if err != nil {
		s.log.Errorf("failed to load local messages for %s: %v", folder, err)
		stats.Errors++
		return
	}

	for _, email := range local {
		// Locally composed rows have no server uid and are not the
		// synchronizer's to remove.
		if email.ImapUID == nil {
			continue
		}
		if _, ok := onServer[*email.ImapUID]; ok {
			continue
		}

		if email.DeletedOnServer {
			if err := s.emails.Delete(ctx, email.ID); err != nil {
				s.handleStorageError(folder, err, stats)
				continue
			}
			stats.PurgedRows++
			continue
		}

		other, err := s.emails.GetByMessageIDInOtherFolder(ctx, email.MessageID, folder)
		if err != nil {
			s.handleStorageError(folder, err, stats)
			continue
		}
		if other != nil {
			if err := s.emails.Delete(ctx, email.ID); err != nil {
				s.handleStorageError(folder, err, stats)
				continue
			}
			stats.MovedMessages++
			continue
		}

		email.DeletedOnServer = true
		email.LastSyncedAt = utils.NowPtr()
		if err := s.emails.Update(ctx, &email); err != nil {
			s.handleStorageError(folder, err, stats)
			continue
		}
		stats.TombstonedRows++
	}
}

// syncOne fetches and persists a single message. Rows that already exist for
// this (folder, uid) only get their sync timestamp refreshed; the body is
// never re-downloaded.
func (s *Service) syncOne(ctx context.Context, client interfaces.MailClient, folder string, uid uint32, stats *Stats) {
	existing, err := s.emails.GetByFolderAndUID(ctx, folder, uid)
	if err != nil {
		s.handleStorageError(folder, err, stats)
		return
	}
	if existing != nil {
		if err := s.emails.MarkSynced(ctx, existing.ID); err != nil {
			s.handleStorageError(folder, err, stats)
			return
		}
		stats.UpdatedMessages++
		return
	}

	raw, err := client.FetchRaw(ctx, uid)
	if err != nil {
		s.log.Errorf("failed to fetch %s/%d: %v", folder, uid, err)
		stats.Errors++
		return
	}

	parsed, err := ParseMessage(raw, folder, uid)
	if err != nil {
		s.log.Errorf("failed to parse %s/%d: %v", folder, uid, err)
		stats.Errors++
		return
	}

	email := &models.Email{
		MessageID:     parsed.MessageID,
		Folder:        folder,
		ImapUID:       &uid,
		Subject:       parsed.Subject,
		FromAddress:   parsed.FromAddress,
		ToAddresses:   parsed.ToAddresses,
		CcAddresses:   parsed.CcAddresses,
		BodyText:      parsed.BodyText,
		BodyHTML:      parsed.BodyHTML,
		HasAttachment: len(parsed.Attachments) > 0,
		ReceivedAt:    parsed.ReceivedAt,
		LastSyncedAt:  utils.NowPtr(),
	}
	if email.ReceivedAt == nil {
		email.ReceivedAt = utils.NowPtr()
	}

	if err := s.emails.Create(ctx, email); err != nil {
		switch database.Classify(err) {
		case database.KindDuplicateKey:
			// Another sync pass got here first.
			stats.SkippedMessages++
		case database.KindConnectionLost:
			s.log.Errorf("storage connection lost while saving %s/%d: %v", folder, uid, err)
			if s.resetSession != nil {
				s.resetSession()
			}
			stats.Errors++
		default:
			s.log.Errorf("failed to save %s/%d: %v", folder, uid, err)
			stats.Errors++
		}
		return
	}

	for _, part := range parsed.Attachments {
		attachment, err := s.materializer.Materialize(ctx, email.ID, part.Filename, part.ContentType, part.Content)
		if err != nil {
			s.log.Warnf("failed to materialize attachment %s on %s/%d: %v", part.Filename, folder, uid, err)
			continue
		}
		if err := s.attachmentsDB.Create(ctx, attachment); err != nil {
			s.log.Warnf("failed to save attachment %s on %s/%d: %v", part.Filename, folder, uid, err)
			continue
		}
	}

	stats.NewMessages++

	s.publish(ctx, EventEmailStored, map[string]interface{}{
		"id":        email.ID,
		"folder":    folder,
		"messageId": email.MessageID,
	})
}

// fetchWindow bounds the per-folder backfill to the newest messages. UIDs
// are sorted ascending first; treating higher uid as more recent is a
// documented precondition on the mailbox server.
func fetchWindow(folder string, uids []uint32) []uint32 {
	window := customFolderWindow
	if models.IsSystemFolderName(folder) {
		window = systemFolderWindow
	}

	sorted := make([]uint32, len(uids))
	copy(sorted, uids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if len(sorted) > window {
		sorted = sorted[len(sorted)-window:]
	}
	return sorted
}

func (s *Service) handleStorageError(folder string, err error, stats *Stats) {
	if database.IsConnectionLost(err) {
		s.log.Errorf("storage connection lost during sync of %s: %v", folder, err)
		if s.resetSession != nil {
			s.resetSession()
		}
	} else {
		s.log.Errorf("storage error during sync of %s: %v", folder, err)
	}
	stats.Errors++
}
