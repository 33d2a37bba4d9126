package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prismateams/mailroom/internal/tracing"
	syncpkg "github.com/prismateams/mailroom/services/sync"
)

type SyncHandler struct {
	syncService *syncpkg.Service
}

func NewSyncHandler(syncService *syncpkg.Service) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Trigger runs a full sync pass synchronously within the request. Overlap
// with the background pass is tolerated; duplicate inserts are counted as
// skips, not failures.
func (h *SyncHandler) Trigger() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "TriggerSync", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		stats, err := h.syncService.SyncAll(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"summary": stats.Summary(),
			"new":     stats.NewMessages,
			"updated": stats.UpdatedMessages,
			"moved":   stats.MovedMessages,
			"deleted": stats.PurgedRows,
			"skipped": stats.SkippedMessages,
			"errors":  stats.Errors,
			"folders": stats.FoldersSeen,
		})
	}
}
