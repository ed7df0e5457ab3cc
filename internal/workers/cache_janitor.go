package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Purger removes expired cache entries and reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CacheJanitor periodically purges stores without native expiry
// (the Postgres cache table).
type CacheJanitor struct {
	Store    Purger
	Interval time.Duration
	Logger   *logrus.Logger
}

// Run purges once immediately, then every Interval until ctx is done.
func (j *CacheJanitor) Run(ctx context.Context) {
	if j.Interval <= 0 {
		j.Interval = time.Hour
	}
	if j.Logger == nil {
		j.Logger = logrus.New()
	}

	t := time.NewTicker(j.Interval)
	defer t.Stop()

	for {
		j.purge(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (j *CacheJanitor) purge(ctx context.Context) {
	n, err := j.Store.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			j.Logger.WithError(err).Warn("cache purge failed")
		}
		return
	}
	if n > 0 {
		j.Logger.WithField("rows", n).Info("expired cache entries purged")
	}
}
