package router

import (
	"github.com/gin-gonic/gin"

	"tendercortex.app/cortex/internal/http/handler"
)

type RouterConfig struct {
	Env string
}

func SetupRoutes(router *gin.Engine, chat *handler.ChatHandler, index *handler.IndexHandler, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "env": cfg.Env})
	})

	api := router.Group("/api")
	{
		api.POST("/ingest", index.Ingest)
		api.DELETE("/index", index.Clear)
		api.GET("/index/stats", index.Stats)
		api.GET("/documents", index.Documents)

		api.POST("/chat", chat.Chat)
		api.POST("/chat/stream", chat.ChatStream)
	}
}
