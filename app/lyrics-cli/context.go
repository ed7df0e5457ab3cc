package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryokun6/ryos-sub004/config"
	"github.com/ryokun6/ryos-sub004/internal/logger"
	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
	"github.com/ryokun6/ryos-sub004/internal/providers/llm"
	"github.com/ryokun6/ryos-sub004/internal/services"
	"github.com/ryokun6/ryos-sub004/internal/transform"
)

type providerFactory func(ctx context.Context, s config.Settings) (llm.Provider, error)

func vertexProvider(ctx context.Context, s config.Settings) (llm.Provider, error) {
	if s.VertexProjectID == "" {
		return nil, errors.New("VERTEX_PROJECT_ID environment variable is not set")
	}
	return llm.NewVertexGemini(ctx, s.VertexProjectID, s.VertexLocation, s.VertexModel)
}

type commandContext struct {
	input       string
	force       bool
	cache       string
	chunkSize   int
	maxParallel int
	logLevel    string

	newProvider providerFactory
}

func newCommandContext(newProvider providerFactory) *commandContext {
	if newProvider == nil {
		newProvider = vertexProvider
	}
	return &commandContext{newProvider: newProvider}
}

// settings reads the environment and applies command-line overrides.
func (c *commandContext) settings() (config.Settings, error) {
	s, err := config.Load()
	if err != nil {
		return config.Settings{}, fmt.Errorf("load configuration: %w", err)
	}
	switch backend := strings.ToLower(strings.TrimSpace(c.cache)); backend {
	case config.BackendMemory, config.BackendRedis:
		s.CacheBackend = backend
	default:
		return config.Settings{}, fmt.Errorf("--cache must be %q or %q", config.BackendMemory, config.BackendRedis)
	}
	if c.chunkSize > 0 {
		s.ChunkSize = c.chunkSize
	}
	if c.maxParallel > 0 {
		s.MaxParallel = c.maxParallel
	}
	return s, nil
}

// service wires the pipelines for one command run. The returned func
// releases the provider and the cache store.
func (c *commandContext) service(cmd *cobra.Command) (services.LyricsService, func(), error) {
	ctx := cmd.Context()
	s, err := c.settings()
	if err != nil {
		return nil, nil, err
	}

	log := logger.NewWithLevel(c.logLevel, cmd.ErrOrStderr())

	store, closeStore, err := config.OpenCache(ctx, s, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	provider, err := c.newProvider(ctx, s)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("init provider: %w", err)
	}

	furigana := pipeline.New[[]models.FuriganaSegment](transform.NewFurigana(provider), store, s.PipelineOptions("furigana"), log)
	translation := pipeline.New[string](transform.NewTranslation(provider), store, s.PipelineOptions("translation"), log)
	cleanup := func() {
		_ = provider.Close()
		_ = closeStore()
	}
	return services.NewLyricsService(furigana, translation, s.MaxLines), cleanup, nil
}

// readInput reads lyric lines from --input, or stdin when it is empty or "-".
func (c *commandContext) readInput(cmd *cobra.Command) ([]models.LyricLine, error) {
	var r io.Reader = cmd.InOrStdin()
	if path := strings.TrimSpace(c.input); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return parseLines(data)
}
