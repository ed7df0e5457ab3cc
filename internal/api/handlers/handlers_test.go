package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryokun6/ryos-sub004/internal/api/handlers"
	"github.com/ryokun6/ryos-sub004/internal/api/routes"
	"github.com/ryokun6/ryos-sub004/internal/cache"
	"github.com/ryokun6/ryos-sub004/internal/logger"
	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
	"github.com/ryokun6/ryos-sub004/internal/providers/llm/llmtest"
	"github.com/ryokun6/ryos-sub004/internal/services"
	"github.com/ryokun6/ryos-sub004/internal/transform"
)

func newRouter(t *testing.T, llm *llmtest.Echo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	store := cache.NewMemoryCache()
	furigana := pipeline.New[[]models.FuriganaSegment](transform.NewFurigana(llm), store, pipeline.Options{KeyPrefix: "lyrics:furigana:v1"}, log)
	translation := pipeline.New[string](transform.NewTranslation(llm), store, pipeline.Options{KeyPrefix: "lyrics:translation:v1"}, log)
	svc := services.NewLyricsService(furigana, translation, 100)

	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Lyrics: handlers.NewLyricsHandler(svc),
		WS:     handlers.NewWSHandler(svc, log),
	})
	return r
}

func body(t *testing.T, n int, lang string) string {
	t.Helper()
	req := models.LyricsRequest{TargetLanguage: lang}
	for i := 0; i < n; i++ {
		req.Lines = append(req.Lines, models.LyricLine{Words: fmt.Sprintf("歌 %d", i), StartTimeMs: fmt.Sprint(i * 1000)})
	}
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return string(b)
}

func post(r http.Handler, path, payload string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// frames decodes an SSE body into its JSON payloads.
func frames(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, block := range strings.Split(strings.TrimSpace(raw), "\n\n") {
		data, ok := strings.CutPrefix(strings.TrimSpace(block), "data: {")
		require.True(t, ok, "frame %q", block)
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte("{"+data), &m))
		out = append(out, m)
	}
	return out
}

func TestPing(t *testing.T) {
	r := newRouter(t, &llmtest.Echo{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestFuriganaSmallThenCached(t *testing.T) {
	llm := &llmtest.Echo{}
	r := newRouter(t, llm)

	w := post(r, "/api/lyrics/furigana", body(t, 5, ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var resp struct {
		AnnotatedLines [][]models.FuriganaSegment `json:"annotatedLines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.AnnotatedLines, 5)
	assert.Equal(t, "歌 3", resp.AnnotatedLines[3][0].Text)

	w = post(r, "/api/lyrics/furigana", body(t, 5, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, llm.Calls())
}

func TestTranslateValidation(t *testing.T) {
	r := newRouter(t, &llmtest.Echo{})

	w := post(r, "/api/lyrics/translate", "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"INVALID_ARGUMENT"`)

	w = post(r, "/api/lyrics/translate", body(t, 2, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/api/lyrics/translate", body(t, 101, "en"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranslateStreamsLargeInput(t *testing.T) {
	r := newRouter(t, &llmtest.Echo{Prefix: "en:"})

	w := post(r, "/api/lyrics/translate", body(t, 40, "en"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	assert.True(t, strings.HasPrefix(w.Body.String(), "data: {\"chunkIndex\":"), w.Body.String())
	assert.True(t, strings.HasSuffix(w.Body.String(), "}\n\n"))

	events := frames(t, w.Body.String())
	require.Len(t, events, 4)

	seen := map[float64]bool{}
	for i, ev := range events[:3] {
		assert.Equal(t, "chunk", ev["type"])
		assert.EqualValues(t, 3, ev["totalChunks"])
		assert.EqualValues(t, i+1, ev["completedCount"])
		seen[ev["chunkIndex"].(float64)] = true

		start := int(ev["startIndex"].(float64))
		translations := ev["translations"].([]any)
		assert.Equal(t, fmt.Sprintf("en:歌 %d", start), translations[0])
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, map[string]any{"type": "complete", "totalLines": float64(40)}, events[3])
}

func TestUpstreamFailure(t *testing.T) {
	r := newRouter(t, &llmtest.Echo{Err: errors.New("quota exceeded")})

	w := post(r, "/api/lyrics/translate", body(t, 3, "en"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"code":"UPSTREAM","message":"translation transform failed"}`, w.Body.String())

	w = post(r, "/api/lyrics/furigana", body(t, 40, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	events := frames(t, w.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "error", last["type"])
	assert.Equal(t, "furigana transform failed", last["message"])
	for _, ev := range events {
		assert.NotEqual(t, "complete", ev["type"])
	}
}

func wsURL(srv *httptest.Server, domain string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/lyrics/" + domain
}

func readAll(t *testing.T, conn *websocket.Conn) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected close: %v", err)
			return out
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		out = append(out, m)
	}
}

func TestWebSocketSmallResult(t *testing.T) {
	srv := httptest.NewServer(newRouter(t, &llmtest.Echo{Prefix: "fr:"}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "translate"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(body(t, 2, "fr"))))
	msgs := readAll(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "result", msgs[0]["type"])
	assert.Equal(t, false, msgs[0]["cached"])
	assert.Equal(t, []any{"fr:歌 0", "fr:歌 1"}, msgs[0]["translations"])
}

func TestWebSocketStream(t *testing.T) {
	srv := httptest.NewServer(newRouter(t, &llmtest.Echo{}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "furigana"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(body(t, 31, ""))))
	msgs := readAll(t, conn)
	require.Len(t, msgs, 4)
	assert.Equal(t, "complete", msgs[3]["type"])
}

func TestWebSocketErrors(t *testing.T) {
	srv := httptest.NewServer(newRouter(t, &llmtest.Echo{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/lyrics/karaoke")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "translate"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`, string(data))
}
