package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/ryokun6/ryos-sub004/internal/pipeline"
)

// sseSink writes each event as one "data: <json>" frame and flushes it.
type sseSink[T any] struct {
	c *gin.Context
}

func (s sseSink[T]) Send(ev pipeline.Event[T]) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	// string data is written verbatim after "data:"
	if err := sse.Encode(s.c.Writer, sse.Event{Data: " " + string(b)}); err != nil {
		return err
	}
	s.c.Writer.Flush()
	return nil
}

// openSSE commits the response to an event stream. It runs only when the
// pipeline decides to stream, so small requests still get plain JSON.
func openSSE[T any](c *gin.Context) pipeline.OpenFunc[T] {
	return func() (pipeline.Sink[T], error) {
		h := c.Writer.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
		c.Writer.Flush()
		return sseSink[T]{c: c}, nil
	}
}
