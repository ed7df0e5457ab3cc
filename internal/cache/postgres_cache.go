package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CacheEntry struct {
	Key       string         `gorm:"column:key;type:text;primaryKey"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb"`
	ExpiresAt time.Time      `gorm:"column:expires_at;type:timestamptz;index"`
}

func (CacheEntry) TableName() string { return "cache_entries" }

// PostgresCache keeps entries in the cache_entries table. Expired rows are
// ignored on read and removed by PurgeExpired.
type PostgresCache struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostgresCache(db *gorm.DB) *PostgresCache {
	return &PostgresCache{db: db, now: time.Now}
}

// Migrate creates or updates the cache_entries table.
func (c *PostgresCache) Migrate(ctx context.Context) error {
	return c.db.WithContext(ctx).AutoMigrate(&CacheEntry{})
}

func (c *PostgresCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	var row CacheEntry
	err := c.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, c.now().UTC()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(row.Value, dst); err != nil {
		_ = c.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

func (c *PostgresCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	row := CacheEntry{
		Key:       key,
		Value:     datatypes.JSON(b),
		ExpiresAt: c.now().UTC().Add(ttl),
	}
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
		}).
		Create(&row).Error
}

func (c *PostgresCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).Where("key IN ?", keys).Delete(&CacheEntry{}).Error
}

// PurgeExpired deletes rows past their expiry and returns how many were removed.
func (c *PostgresCache) PurgeExpired(ctx context.Context) (int64, error) {
	res := c.db.WithContext(ctx).Where("expires_at <= ?", c.now().UTC()).Delete(&CacheEntry{})
	return res.RowsAffected, res.Error
}
