package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/prismateams/mailroom/api/handlers"
	"github.com/prismateams/mailroom/api/middleware"
	"github.com/prismateams/mailroom/internal/repository"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())

	apiHandlers := handlers.InitHandlers(s, repos)

	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-MAILROOM-API-KEY",
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(tracing.TracingEnhancer(ctx, "api"))
	{
		api.POST("/sync", apiHandlers.Sync.Trigger())

		api.GET("/folders", apiHandlers.Folders.List())

		emails := api.Group("/emails")
		{
			emails.GET("", apiHandlers.Emails.List())
			emails.GET("/:id", apiHandlers.Emails.Get())
			emails.POST("", apiHandlers.Emails.Send())
		}

		attachments := api.Group("/attachments")
		{
			attachments.GET("/:id", apiHandlers.Attachments.Download())
		}
	}
}
