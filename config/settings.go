package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ryokun6/ryos-sub004/internal/cache"
	"github.com/ryokun6/ryos-sub004/internal/logger"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
)

const (
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Settings is the process configuration read from the environment.
type Settings struct {
	Port     string
	LogLevel string

	CacheBackend string
	CacheTTL     time.Duration
	CachePrefix  string
	CacheVersion string

	ChunkSize       int
	MaxParallel     int
	StreamThreshold int
	MaxLines        int

	VertexProjectID string
	VertexLocation  string
	VertexModel     string
}

func Load() (Settings, error) {
	s := Settings{
		Port:            envOr("PORT", "8080"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		CacheBackend:    strings.ToLower(envOr("CACHE_BACKEND", BackendRedis)),
		CachePrefix:     envOr("CACHE_PREFIX", "lyrics"),
		CacheVersion:    envOr("CACHE_VERSION", "v1"),
		VertexProjectID: os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:  envOr("VERTEX_LOCATION", "us-central1"),
		VertexModel:     os.Getenv("VERTEX_MODEL"),
	}

	switch s.CacheBackend {
	case BackendRedis, BackendMongo, BackendPostgres, BackendMemory:
	default:
		return Settings{}, fmt.Errorf("CACHE_BACKEND: unknown backend %q", s.CacheBackend)
	}

	var err error
	if s.CacheTTL, err = envDuration("CACHE_TTL", pipeline.DefaultTTL); err != nil {
		return Settings{}, err
	}
	if s.ChunkSize, err = envInt("CHUNK_SIZE", pipeline.DefaultChunkSize); err != nil {
		return Settings{}, err
	}
	if s.MaxParallel, err = envInt("MAX_PARALLEL", pipeline.DefaultMaxParallel); err != nil {
		return Settings{}, err
	}
	if s.StreamThreshold, err = envInt("STREAM_THRESHOLD", 0); err != nil {
		return Settings{}, err
	}
	if s.MaxLines, err = envInt("MAX_LINES", 1000); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// NewLogger builds the process logger at LogLevel.
func (s Settings) NewLogger(out io.Writer) *logrus.Logger {
	return logger.NewWithLevel(s.LogLevel, out)
}

// PipelineOptions namespaces a domain's cache keys as "<prefix>:<domain>:<version>".
func (s Settings) PipelineOptions(domain string) pipeline.Options {
	return pipeline.Options{
		KeyPrefix:       s.CachePrefix + ":" + domain + ":" + s.CacheVersion,
		TTL:             s.CacheTTL,
		ChunkSize:       s.ChunkSize,
		MaxParallel:     s.MaxParallel,
		StreamThreshold: s.StreamThreshold,
	}
}

// OpenCache connects the configured store. The returned func releases it.
func OpenCache(ctx context.Context, s Settings, log *logrus.Logger) (cache.Cache, func() error, error) {
	switch s.CacheBackend {
	case BackendMemory:
		return cache.NewMemoryCache(), func() error { return nil }, nil

	case BackendRedis:
		rdb, err := InitRedis(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		log.Info("Redis connected")
		return cache.NewRedisCache(rdb), rdb.Close, nil

	case BackendMongo:
		client, err := InitMongo(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		db := client.Database(MongoDatabase())
		if err := EnsureCacheIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info("MongoDB connected")
		return cache.NewMongoCache(db), func() error { return client.Disconnect(context.Background()) }, nil

	case BackendPostgres:
		db, err := InitPostgres()
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		pg := cache.NewPostgresCache(db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		log.Info("PostgreSQL connected")
		return pg, sqlDB.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", s.CacheBackend)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: expected a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: expected a positive duration, got %q", key, v)
	}
	return d, nil
}
