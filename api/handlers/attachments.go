package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prismateams/mailroom/internal/repository"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/services/attachments"
)

type AttachmentsHandler struct {
	materializer *attachments.Materializer
	repos        *repository.Repositories
}

func NewAttachmentsHandler(materializer *attachments.Materializer, repos *repository.Repositories) *AttachmentsHandler {
	return &AttachmentsHandler{materializer: materializer, repos: repos}
}

// Download streams an attachment payload, wherever it is stored.
func (h *AttachmentsHandler) Download() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "DownloadAttachment", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		attachment, err := h.repos.EmailAttachmentRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if attachment == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrAttachmentNotFound.Error()})
			return
		}

		data, err := h.materializer.Load(ctx, attachment)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		contentType := attachment.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		c.Header("Content-Disposition", "attachment; filename=\""+attachment.Filename+"\"")
		c.Data(http.StatusOK, contentType, data)
	}
}
