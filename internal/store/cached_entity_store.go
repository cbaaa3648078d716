package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/featherfn/metagate/internal/entity"
)

const defaultPackageCacheTTL = 30 * time.Second

// CachedEntityStore fronts an EntityStore with a redis read-through cache
// for package documents. Meta routing reads the same handful of packages
// on every request; actions and triggers pass through uncached. Cache
// failures degrade to direct reads and never surface to callers.
type CachedEntityStore struct {
	inner EntityStore
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedEntityStore wraps inner with a package cache. A nil client
// returns the inner store unchanged.
func NewCachedEntityStore(inner EntityStore, rdb *redis.Client, ttl time.Duration) EntityStore {
	if rdb == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = defaultPackageCacheTTL
	}
	return &CachedEntityStore{inner: inner, rdb: rdb, ttl: ttl}
}

// GetPackage serves from redis when possible, falling back to the inner store.
func (s *CachedEntityStore) GetPackage(ctx context.Context, docID string) (*entity.Package, error) {
	cacheKey := "metagate:package:" + docID

	raw, errGet := s.rdb.Get(ctx, cacheKey).Bytes()
	if errGet == nil {
		var pkg entity.Package
		if errUnmarshal := json.Unmarshal(raw, &pkg); errUnmarshal == nil {
			return &pkg, nil
		}
		// Unreadable cache entries are replaced by the fresh read below.
	} else if !errors.Is(errGet, redis.Nil) {
		log.WithError(errGet).Debugf("entity cache: read failed (doc=%s)", docID)
	}

	pkg, errInner := s.inner.GetPackage(ctx, docID)
	if errInner != nil {
		return nil, errInner
	}

	if encoded, errMarshal := json.Marshal(pkg); errMarshal == nil {
		if errSet := s.rdb.Set(ctx, cacheKey, encoded, s.ttl).Err(); errSet != nil {
			log.WithError(errSet).Debugf("entity cache: write failed (doc=%s)", docID)
		}
	}
	return pkg, nil
}

// GetAction passes through to the inner store.
func (s *CachedEntityStore) GetAction(ctx context.Context, docID string) (*entity.Action, error) {
	return s.inner.GetAction(ctx, docID)
}

// GetTrigger passes through to the inner store.
func (s *CachedEntityStore) GetTrigger(ctx context.Context, docID string) (*entity.Trigger, error) {
	return s.inner.GetTrigger(ctx, docID)
}
