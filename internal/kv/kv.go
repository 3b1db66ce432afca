// Package kv defines the small key-value contract shared by the rate limiter
// and the snapshot store.
package kv

import (
	"context"
	"time"
)

// Store implementations must be safe for concurrent use.
type Store interface {
	// Get returns ok=false when key is absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Put stores value under key. ttl 0 means no expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Sweeper is implemented by stores that keep expired entries around until
// they are explicitly purged.
type Sweeper interface {
	Sweep(ctx context.Context) (removed int64, err error)
}
