package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prismateams/mailroom/internal/repository"
	"github.com/prismateams/mailroom/internal/tracing"
)

type FoldersHandler struct {
	repos *repository.Repositories
}

func NewFoldersHandler(repos *repository.Repositories) *FoldersHandler {
	return &FoldersHandler{repos: repos}
}

// List returns all locally mirrored folders.
func (h *FoldersHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListFolders", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		folders, err := h.repos.FolderRepository.GetAll(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"folders": folders})
	}
}
