package routes

import (
	"github.com/gin-gonic/gin"

	"whisper-scribe/internal/api/v1/handlers"
	"whisper-scribe/internal/api/v1/services"
)

// ServiceContainer holds the services the v1 routes are built on.
type ServiceContainer struct {
	JobService *services.JobService
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	transcriptionHandler := handlers.NewTranscriptionHandler(container.JobService)

	transcriptions := router.Group("/transcriptions")
	{
		transcriptions.POST("", transcriptionHandler.Create)
		transcriptions.GET("/:id", transcriptionHandler.Get)
		transcriptions.POST("/:id/cancel", transcriptionHandler.Cancel)
		transcriptions.DELETE("/:id", transcriptionHandler.Delete)
		transcriptions.GET("/:id/download", transcriptionHandler.Download)
	}

	router.POST("/estimate", transcriptionHandler.Estimate)
}
