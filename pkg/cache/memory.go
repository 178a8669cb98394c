package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStats is a snapshot of lookup counters.
type MemoryStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// MemoryStore is the single-process Store. Values are kept JSON-encoded so
// callers never share memory with a stored entry. Reads do not extend an
// entry's TTL.
type MemoryStore struct {
	items     *ttlcache.Cache[string, []byte]
	logger    *slog.Logger
	stop      chan struct{}
	closeOnce sync.Once
}

const sweepInterval = time.Minute

// NewMemoryStore starts the background expiry sweep. Call Close to stop it.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MemoryStore{
		items: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
		logger: logger,
		stop:   make(chan struct{}),
	}
	go m.sweep(sweepInterval)
	return m
}

// sweep drops expired entries that were never read again.
func (m *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.items.DeleteExpired()
		}
	}
}

// Get retrieves and unmarshals a JSON value from the store
func (m *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	item := m.items.Get(key)
	if item == nil {
		m.logger.Debug("cache miss", "key", key)
		return ErrCacheMiss
	}

	if err := json.Unmarshal(item.Value(), dest); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	m.logger.Debug("cache hit", "key", key)
	return nil
}

// Set marshals and stores a value. A zero expiration never expires.
func (m *MemoryStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	ttl := expiration
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	m.items.Set(key, data, ttl)

	m.logger.Debug("cached key", "key", key, "ttl", expiration)
	return nil
}

// Stats counts only live entries; expired ones awaiting the sweep are skipped.
func (m *MemoryStore) Stats() MemoryStats {
	metrics := m.items.Metrics()
	return MemoryStats{
		Hits:    metrics.Hits,
		Misses:  metrics.Misses,
		Entries: len(m.items.Items()),
	}
}

func (m *MemoryStore) HealthCheck(ctx context.Context) bool {
	return true
}

// Close stops the expiry sweep. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}
