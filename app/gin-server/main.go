package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ryokun6/ryos-sub004/config"
	"github.com/ryokun6/ryos-sub004/internal/api/handlers"
	"github.com/ryokun6/ryos-sub004/internal/api/middleware"
	"github.com/ryokun6/ryos-sub004/internal/api/routes"
	"github.com/ryokun6/ryos-sub004/internal/logger"
	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
	"github.com/ryokun6/ryos-sub004/internal/providers/llm"
	"github.com/ryokun6/ryos-sub004/internal/services"
	"github.com/ryokun6/ryos-sub004/internal/transform"
	"github.com/ryokun6/ryos-sub004/internal/workers"
)

func main() {
	_ = godotenv.Load()

	settings, err := config.Load()
	if err != nil {
		logger.New().WithError(err).Fatal("config error")
	}
	log := settings.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := config.OpenCache(ctx, settings, log)
	if err != nil {
		log.WithError(err).Fatal("cache init error")
	}
	defer func() { _ = closeStore() }()

	if purger, ok := store.(workers.Purger); ok {
		go (&workers.CacheJanitor{Store: purger, Interval: time.Hour, Logger: log}).Run(ctx)
	}

	if settings.VertexProjectID == "" {
		log.Fatal("VERTEX_PROJECT_ID environment variable is not set")
	}
	provider, err := llm.NewVertexGemini(ctx, settings.VertexProjectID, settings.VertexLocation, settings.VertexModel)
	if err != nil {
		log.WithError(err).Fatal("vertex init error")
	}
	defer provider.Close()

	furigana := pipeline.New[[]models.FuriganaSegment](transform.NewFurigana(provider), store, settings.PipelineOptions("furigana"), log)
	translation := pipeline.New[string](transform.NewTranslation(provider), store, settings.PipelineOptions("translation"), log)
	svc := services.NewLyricsService(furigana, translation, settings.MaxLines)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Lyrics: handlers.NewLyricsHandler(svc),
		WS:     handlers.NewWSHandler(svc, log),
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", settings.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}
