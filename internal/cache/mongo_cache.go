package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MongoCollection = "pipeline_cache"

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	ExpiresAt time.Time `bson:"expires_at"` // for TTL index
}

// MongoCache stores entries in a collection expired by a TTL index on expires_at
// (see config.EnsureCacheIndexes). The TTL monitor runs about once a minute,
// so reads also check expiry.
type MongoCache struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoCache(db *mongo.Database) *MongoCache {
	return &MongoCache{col: db.Collection(MongoCollection), now: time.Now}
}

func (c *MongoCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	var e mongoEntry
	err := c.col.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !c.now().Before(e.ExpiresAt) {
		return false, nil
	}
	if err := json.Unmarshal([]byte(e.Value), dst); err != nil {
		_, _ = c.col.DeleteOne(ctx, bson.M{"_id": key})
		return false, nil
	}
	return true, nil
}

func (c *MongoCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	_, err = c.col.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{
			"value":      string(b),
			"expires_at": c.now().UTC().Add(ttl),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (c *MongoCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
	return err
}
