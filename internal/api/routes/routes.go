package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ryokun6/ryos-sub004/internal/api/handlers"
)

type Deps struct {
	Lyrics *handlers.LyricsHandler
	WS     *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api/lyrics")
	api.POST("/furigana", d.Lyrics.Furigana)
	api.POST("/translate", d.Lyrics.Translate)

	// WebSocket
	r.GET("/ws/lyrics/:domain", d.WS.LyricsWS)
}
