package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Store is the process-wide key/value cache shared by the stats pipeline and
// the feedback generator. Implementations must be safe for concurrent use.
type Store interface {
	// Get decodes the value stored under key into dest.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores value under key until ttl elapses, replacing any previous entry.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	HealthCheck(ctx context.Context) bool
	Close() error
}
