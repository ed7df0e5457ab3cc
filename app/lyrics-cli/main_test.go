package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryokun6/ryos-sub004/config"
	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/providers/llm"
	"github.com/ryokun6/ryos-sub004/internal/providers/llm/llmtest"
)

func runCLI(t *testing.T, echo *llmtest.Echo, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"CACHE_BACKEND", "CACHE_TTL", "CHUNK_SIZE", "MAX_PARALLEL", "STREAM_THRESHOLD", "MAX_LINES"} {
		t.Setenv(k, "")
	}

	cmd := newRootCommand(func(context.Context, config.Settings) (llm.Provider, error) {
		return echo, nil
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func jsonLines(n int) string {
	lines := make([]models.LyricLine, n)
	for i := range lines {
		lines[i] = models.LyricLine{Words: fmt.Sprintf("星 %d", i), StartTimeMs: fmt.Sprint(i * 500)}
	}
	b, _ := json.Marshal(lines)
	return string(b)
}

func TestFuriganaSyncOutput(t *testing.T) {
	out, err := runCLI(t, &llmtest.Echo{}, jsonLines(3), "furigana")
	require.NoError(t, err)

	var res syncResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Cached)
	require.Len(t, res.AnnotatedLines, 3)
	assert.Equal(t, "星 2", res.AnnotatedLines[2][0].Text)
	assert.Contains(t, out, "\n  \"annotatedLines\"")
}

func TestTranslateStreamsNDJSON(t *testing.T) {
	echo := &llmtest.Echo{Prefix: "en:"}
	out, err := runCLI(t, echo, jsonLines(5), "translate", "--to", "en", "--chunk-size", "2", "--max-parallel", "2")
	require.NoError(t, err)

	rows := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, rows, 4)

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[3]), &last))
	assert.Equal(t, map[string]any{"type": "complete", "totalLines": float64(5)}, last)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[0]), &first))
	assert.Equal(t, "chunk", first["type"])
	assert.Contains(t, first, "translations")
	assert.Equal(t, 3, echo.Calls())
}

func TestTranslateRequiresTarget(t *testing.T) {
	_, err := runCLI(t, &llmtest.Echo{}, jsonLines(1), "translate")
	assert.ErrorContains(t, err, "to")
}

func TestRejectsUnknownCache(t *testing.T) {
	_, err := runCLI(t, &llmtest.Echo{}, jsonLines(1), "furigana", "--cache", "mongo")
	assert.ErrorContains(t, err, "--cache")
}

func TestReadsInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.lrc")
	require.NoError(t, os.WriteFile(path, []byte("[ti:Song]\n[00:01.00]夜空\n"), 0o644))

	out, err := runCLI(t, &llmtest.Echo{Prefix: "fr:"}, "", "translate", "--to", "fr", "-i", path)
	require.NoError(t, err)

	var res syncResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"fr:夜空"}, res.Translations)
}

func TestParseLinesLRC(t *testing.T) {
	lrc := "\ufeff[ar:Someone]\n[00:12.5]second\r\n[00:01.00]first\n[01:02.345][00:30]twice\n\n"
	lines, err := parseLines([]byte(lrc))
	require.NoError(t, err)
	assert.Equal(t, []models.LyricLine{
		{Words: "first", StartTimeMs: "1000"},
		{Words: "second", StartTimeMs: "12500"},
		{Words: "twice", StartTimeMs: "30000"},
		{Words: "twice", StartTimeMs: "62345"},
	}, lines)
}

func TestParseLinesPlainAndEmpty(t *testing.T) {
	lines, err := parseLines([]byte("one\ntwo\n"))
	require.NoError(t, err)
	assert.Equal(t, []models.LyricLine{{Words: "one"}, {Words: "two"}}, lines)

	_, err = parseLines([]byte("  \n"))
	assert.ErrorIs(t, err, errNoLines)

	_, err = parseLines([]byte("[]"))
	assert.ErrorIs(t, err, errNoLines)
}
