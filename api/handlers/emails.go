package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prismateams/mailroom/internal/repository"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/services"
	"github.com/prismateams/mailroom/services/smtp"
)

type EmailsHandler struct {
	services *services.Services
	repos    *repository.Repositories
}

func NewEmailsHandler(s *services.Services, repos *repository.Repositories) *EmailsHandler {
	return &EmailsHandler{services: s, repos: repos}
}

// List returns messages in a folder, newest first.
func (h *EmailsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListEmails", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		folder := c.Query("folder")
		if folder == "" {
			folder = "INBOX"
		}
		tracing.TagFolder(span, folder)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		emails, err := h.repos.EmailRepository.ListByFolder(ctx, folder, limit, offset)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"folder": folder, "emails": emails})
	}
}

// Get returns one message with its attachment metadata.
func (h *EmailsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "GetEmail", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		email, err := h.repos.EmailRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if email == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrEmailNotFound.Error()})
			return
		}

		c.JSON(http.StatusOK, email)
	}
}

// Send delivers a locally composed message and records it in the Sent
// folder.
func (h *EmailsHandler) Send() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "SendEmail", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var req smtp.ComposeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		email, err := h.services.Sender.Send(ctx, &req)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, email)
	}
}
