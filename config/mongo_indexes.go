package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ryokun6/ryos-sub004/internal/cache"
)

// EnsureCacheIndexes lets MongoDB drop cache documents once expires_at passes.
func EnsureCacheIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection(cache.MongoCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		// expire at ExpiresAt (must be Date)
		Keys: bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().
			SetName("ttl_expires_at").
			SetExpireAfterSeconds(0),
	})
	return err
}
