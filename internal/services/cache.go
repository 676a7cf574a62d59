package services

import (
	"context"
	"time"
)

// Cache is the read-through store used for leaderboard snapshots.
// Get returns database.ErrCacheMiss (or any error) when nothing usable is stored.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}
