package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver/handlers"
)

func registerIngestRoutes(router gin.IRoutes, handler *handlers.IngestHandler) {
	router.GET("/ingest/health", handler.Health)
	router.GET("/ingest/dead-letters", handler.DeadLetters)
}
