package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CacheMongo is a cache.Store over a Mongo collection, used when the
// deployment has MongoDB but no Redis.
//
// Expected schema:
//
//	gatherer_cache
//	  { _id: "<category>:<key>", value: binary }
type CacheMongo struct {
	col *mongo.Collection
}

type cacheDoc struct {
	Key   string `bson:"_id"`
	Value []byte `bson:"value"`
}

// NewCacheRepository returns a CacheMongo on the named collection.
func NewCacheRepository(db *mongo.Database, collection string) *CacheMongo {
	return &CacheMongo{col: db.Collection(collection)}
}

// Get returns found=false when no document has the key.
func (r *CacheMongo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc cacheDoc
	err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find cache entry %s: %w", key, err)
	}
	return doc.Value, true, nil
}

// Set inserts or replaces the entry with the same key.
func (r *CacheMongo) Set(ctx context.Context, key string, val []byte) error {
	_, err := r.col.ReplaceOne(
		ctx,
		bson.M{"_id": key},
		cacheDoc{Key: key, Value: val},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry %s: %w", key, err)
	}
	return nil
}
