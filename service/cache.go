package service

import (
	"context"
	"fmt"
)

// CacheStore deletes cached entries by key prefix. *infra.RedisClient
// satisfies it.
type CacheStore interface {
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// CacheInvalidator drops stale public listings after a mutation.
type CacheInvalidator struct {
	store CacheStore
}

func NewCacheInvalidator(store CacheStore) *CacheInvalidator {
	return &CacheInvalidator{store: store}
}

// Invalidate never fails the caller. A stale entry expires on its own TTL, so
// errors come back as a *BestEffortError for logging only.
func (ci *CacheInvalidator) Invalidate(ctx context.Context, prefixes ...string) *BestEffortError {
	if ci == nil || ci.store == nil {
		return nil
	}
	be := &BestEffortError{Op: "cache invalidation"}
	for _, prefix := range prefixes {
		if _, err := ci.store.DeleteByPrefix(ctx, prefix); err != nil {
			be.add(fmt.Errorf("prefix %s: %w", prefix, err))
		}
	}
	return be.orNil()
}
