package sync

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/models"
	"github.com/prismateams/mailroom/internal/tracing"
)

// syncFolders mirrors the server's folder list into local records. A bad
// listing entry is logged and skipped; only the listing call itself is fatal.
func (s *Service) syncFolders(ctx context.Context, client interfaces.MailClient) (Stats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.syncFolders")
	defer span.Finish()
	tracing.TagComponentService(span)

	stats := Stats{}

	listing, err := client.ListFolders(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return stats, err
	}

	var names []string
	for _, info := range listing {
		name := strings.TrimSpace(info.Name)
		if name == "" || strings.Trim(name, "/") == "" {
			continue
		}
		if hasAttribute(info.Attributes, "\\Noselect") {
			continue
		}

		names = append(names, name)
		stats.FoldersSeen++

		existing, err := s.folders.GetByName(ctx, name)
		if err != nil {
			s.log.Warnf("failed to look up folder %s: %v", name, err)
			stats.Errors++
			continue
		}
		if existing != nil {
			continue
		}

		folder := &models.Folder{
			Name:           name,
			DisplayName:    displayName(name, info.Delimiter),
			IsSystemFolder: models.IsSystemFolderName(name),
		}
		if err := s.folders.Create(ctx, folder); err != nil {
			s.log.Warnf("failed to create folder %s: %v", name, err)
			stats.Errors++
			continue
		}
		stats.FoldersCreated++
	}

	// Cleanup against bad rows from earlier runs.
	removed, err := s.folders.DeleteByNames(ctx, []string{"", "/"})
	if err != nil {
		s.log.Warnf("failed to clean up invalid folders: %v", err)
	}
	stats.FoldersRemoved += int(removed)

	s.pruneUnreported(ctx, names, &stats)

	return stats, nil
}

// pruneUnreported deletes local folders the server stopped reporting, but
// only once they hold no message rows. Non-empty ones are kept so their
// messages can still reconcile away.
func (s *Service) pruneUnreported(ctx context.Context, reported []string, stats *Stats) {
	onServer := make(map[string]struct{}, len(reported))
	for _, name := range reported {
		onServer[name] = struct{}{}
	}

	local, err := s.folders.GetAll(ctx)
	if err != nil {
		s.log.Warnf("failed to load local folders for pruning: %v", err)
		stats.Errors++
		return
	}

	for _, folder := range local {
		if _, ok := onServer[folder.Name]; ok {
			continue
		}
		count, err := s.emails.CountByFolder(ctx, folder.Name)
		if err != nil {
			s.log.Warnf("failed to count messages in folder %s: %v", folder.Name, err)
			stats.Errors++
			continue
		}
		if count > 0 {
			continue
		}
		if _, err := s.folders.DeleteByNames(ctx, []string{folder.Name}); err != nil {
			s.log.Warnf("failed to prune folder %s: %v", folder.Name, err)
			stats.Errors++
			continue
		}
		stats.FoldersRemoved++
	}
}

func displayName(name, delimiter string) string {
	if delimiter == "" {
		return name
	}
	parts := strings.Split(name, delimiter)
	return parts[len(parts)-1]
}

func hasAttribute(attributes []string, attribute string) bool {
	for _, a := range attributes {
		if strings.EqualFold(a, attribute) {
			return true
		}
	}
	return false
}
