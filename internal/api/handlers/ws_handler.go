package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
	"github.com/ryokun6/ryos-sub004/internal/services"
	"github.com/ryokun6/ryos-sub004/internal/utils"
)

const (
	wsWriteWait = 10 * time.Second
	wsReadWait  = 60 * time.Second
)

// WSHandler serves the lyrics pipelines over a WebSocket: the client sends
// one request, the server answers with events or a single result frame and
// closes the connection.
type WSHandler struct {
	svc      services.LyricsService
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(svc services.LyricsService, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WSHandler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeError(err error) error {
	_, body := apiError(err)
	return w.writeJSON(gin.H{"type": pipeline.EventError, "code": body.Code, "message": body.Message})
}

// wsSink forwards pipeline events as text frames.
type wsSink[T any] struct {
	wc *wsConn
}

func (s wsSink[T]) Send(ev pipeline.Event[T]) error { return s.wc.writeJSON(ev) }

func openWS[T any](wc *wsConn) pipeline.OpenFunc[T] {
	return func() (pipeline.Sink[T], error) { return wsSink[T]{wc: wc}, nil }
}

func (h *WSHandler) LyricsWS(c *gin.Context) {
	const op = "WSHandler.LyricsWS"

	domain := c.Param("domain")
	if domain != "furigana" && domain != "translate" {
		writeError(c, utils.E(utils.CodeNotFound, op, "unknown domain", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	log := h.log.WithFields(logrus.Fields{"domain": domain, "request_id": c.GetString("request_id")})

	_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.WithError(err).Debug("ws closed before request")
		return
	}

	var req models.LyricsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		_ = wc.writeError(utils.E(utils.CodeInvalidArgument, op, "invalid json", err))
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// a read error means the client went away; stop the work
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Time{})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var werr error
	switch domain {
	case "furigana":
		reply, err := h.svc.Furigana(ctx, req, openWS[[]models.FuriganaSegment](wc))
		werr = h.finish(wc, reply.Streamed, reply.Cached, "annotatedLines", reply.Result, err)
	case "translate":
		reply, err := h.svc.Translate(ctx, req, openWS[string](wc))
		werr = h.finish(wc, reply.Streamed, reply.Cached, "translations", reply.Result, err)
	}
	if werr != nil {
		log.WithError(werr).Warn("ws write failed")
		return
	}

	wc.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
	wc.mu.Unlock()
}

func (h *WSHandler) finish(wc *wsConn, streamed, cached bool, field string, result any, err error) error {
	if streamed {
		return nil
	}
	if err != nil {
		return wc.writeError(err)
	}
	return wc.writeJSON(gin.H{"type": "result", "cached": cached, field: result})
}
