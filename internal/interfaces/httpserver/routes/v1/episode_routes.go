package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver/handlers"
)

func registerEpisodeRoutes(router gin.IRoutes, handler *handlers.EpisodeHandler) {
	router.POST("/episodes", handler.Enqueue)
}
