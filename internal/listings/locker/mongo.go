package locker

import (
	"context"
	"fmt"
	"sync"
	"time"

	listingserrors "pisos/internal/listings/errors"
	"pisos/pkg/config"
	"pisos/pkg/logger"
	"pisos/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Listing_locks"

// MongoLocker keeps advisory lock documents keyed by listing id. The unique _id
// makes insertion the acquisition; the TTL index on expiresAt reaps locks of
// crashed holders.
type MongoLocker struct {
	collection *mongo.Collection
	ttl        time.Duration
	wait       time.Duration
	log        *logger.Logger
}

func NewMongoLocker(cfg *config.Config) *MongoLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &MongoLocker{
		collection: db.Collection(LockCollectionName),
		ttl:        cfg.LockTTL,
		wait:       cfg.LockWaitTimeout,
		log:        cfg.Log,
	}
}

func (m *MongoLocker) Acquire(ctx context.Context, key string) (func(), error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(m.wait)

	for {
		acquired, err := m.tryAcquire(ctx, key, owner)
		if err != nil {
			return nil, err
		}
		if acquired {
			return m.releaseFunc(key, owner), nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", listingserrors.ErrLockHeld, key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (m *MongoLocker) tryAcquire(ctx context.Context, key, owner string) (bool, error) {
	now := time.Now().UTC()
	lock := model.ListingLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	_, err := m.collection.InsertOne(ctx, lock)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to acquire listing lock: %w", err)
	}

	// The TTL monitor only runs once a minute, so expired locks are cleared here.
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": key, "expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return false, fmt.Errorf("failed to clear expired listing lock: %w", err)
	}
	if result.DeletedCount > 0 {
		m.log.Warn("Cleared expired listing lock", "listing_id", key)
	}
	return false, nil
}

func (m *MongoLocker) releaseFunc(key, owner string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner}); err != nil {
				m.log.Warn("Failed to release listing lock", "listing_id", key, "error", err)
			}
		})
	}
}
