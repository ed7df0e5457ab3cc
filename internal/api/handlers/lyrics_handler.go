package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/services"
	"github.com/ryokun6/ryos-sub004/internal/utils"
)

type LyricsHandler struct {
	svc services.LyricsService
}

func NewLyricsHandler(svc services.LyricsService) *LyricsHandler {
	return &LyricsHandler{svc: svc}
}

func (h *LyricsHandler) Furigana(c *gin.Context) {
	var req models.LyricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "LyricsHandler.Furigana", "invalid request body", err))
		return
	}

	reply, err := h.svc.Furigana(c.Request.Context(), req, openSSE[[]models.FuriganaSegment](c))
	if reply.Streamed {
		// outcome already sent as events
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	setCacheHeader(c, reply.Cached)
	c.JSON(http.StatusOK, gin.H{"annotatedLines": reply.Result})
}

func (h *LyricsHandler) Translate(c *gin.Context) {
	var req models.LyricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "LyricsHandler.Translate", "invalid request body", err))
		return
	}

	reply, err := h.svc.Translate(c.Request.Context(), req, openSSE[string](c))
	if reply.Streamed {
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	setCacheHeader(c, reply.Cached)
	c.JSON(http.StatusOK, gin.H{"translations": reply.Result})
}
