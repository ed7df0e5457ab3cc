package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// BestEffort wraps a Cache so that store failures never reach the caller:
// a failed read is a miss and a failed write is dropped, both logged at warn.
type BestEffort struct {
	c   Cache
	log *logrus.Logger
}

// NewBestEffort accepts a nil Cache, in which case every read misses.
func NewBestEffort(c Cache, log *logrus.Logger) *BestEffort {
	if log == nil {
		log = logrus.New()
	}
	return &BestEffort{c: c, log: log}
}

func (b *BestEffort) Get(ctx context.Context, key string, dst any) bool {
	if b == nil || b.c == nil {
		return false
	}
	hit, err := b.c.GetJSON(ctx, key, dst)
	if err != nil {
		b.log.WithError(err).WithField("key", key).Warn("cache get failed")
		return false
	}
	return hit
}

func (b *BestEffort) Set(ctx context.Context, key string, val any, ttl time.Duration) {
	if b == nil || b.c == nil {
		return
	}
	if err := b.c.SetJSON(ctx, key, val, ttl); err != nil {
		b.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}
