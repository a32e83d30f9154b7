package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the visitor-request counter behind the edge rate limit. Incr
// must be a single logical increment-with-expiry: the returned count is the
// value after this request, and the key expires on its own once the window
// passes. Read-then-write implementations race under concurrent requests
// from the same visitor and do not satisfy this contract.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// incrScript increments and arms the window TTL atomically. The expiry is
// set only when the key is created, so the window is measured from the
// visitor's first request, not refreshed on every hit.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisCounter backs the rate limit with a shared Redis instance so multiple
// edge replicas see one counter per visitor.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter connects to Redis and verifies the connection.
func NewRedisCounter(addr, password string, db int) (*RedisCounter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisCounter{client: client, prefix: "rl:"}, nil
}

// Incr atomically increments the visitor counter, creating it with the given
// TTL on first hit.
func (c *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return incrScript.Run(ctx, c.client, []string{c.prefix + key}, ttl.Milliseconds()).Int64()
}

// Close releases the underlying connection pool.
func (c *RedisCounter) Close() error {
	return c.client.Close()
}

// MemoryCounter is a process-local Counter for tests and single-instance
// deployments without Redis.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCounter constructs an in-process counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Incr implements Counter with the same first-request-anchored window as the
// Redis variant.
func (c *MemoryCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry, ok := c.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &memoryEntry{expiresAt: now.Add(ttl)}
		c.entries[key] = entry
	}
	entry.count++

	// Opportunistic sweep keeps the map from growing without a dedicated
	// cleanup goroutine.
	if len(c.entries) > 4096 {
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	return entry.count, nil
}

var (
	_ Counter = (*RedisCounter)(nil)
	_ Counter = (*MemoryCounter)(nil)
)
