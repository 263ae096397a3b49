package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewServer builds the local control API for a UI shell.
func NewServer(conv Conversation, addr string, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              addr,
		Handler:           NewRouter(conv, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// NewRouter registers the API routes on a fresh gin engine.
func NewRouter(conv Conversation, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	h := NewHandlers(conv, logger)
	api := router.Group("/api")
	{
		api.GET("/peers", h.Peers)
		api.GET("/conversation", h.Conversation)
		api.POST("/conversation/peer", h.SelectPeer)
		api.POST("/messages", h.Send)
		api.POST("/typing", h.Typing)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
