package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// SnapshotCache is a read-through cache for a profile's materialized field
// map. The version ledger invalidates the entry on every committed write, so
// a hit is always at least as fresh as the last commit this process saw.
type SnapshotCache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*SnapshotCache)

// WithTTL sets the expiration for cached snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(c *SnapshotCache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *SnapshotCache) {
		c.prefix = prefix
	}
}

// New creates a cache talking to the given redis address.
func New(addr, password string, opts ...Option) *SnapshotCache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a cache from an existing client. Used in tests.
func NewFromClient(client *backend.Client, opts ...Option) *SnapshotCache {
	c := &SnapshotCache{
		client: client,
		prefix: "brandforge:snapshot:",
		ttl:    10 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SnapshotCache) key(profileID string) string {
	return c.prefix + profileID
}

// Get returns the cached snapshot and whether it was present.
func (c *SnapshotCache) Get(ctx context.Context, profileID string) (map[string]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(profileID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("snapshot get: %w", err)
	}
	var snap map[string]string
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false, fmt.Errorf("snapshot decode: %w", err)
	}
	return snap, true, nil
}

func (c *SnapshotCache) Set(ctx context.Context, profileID string, snap map[string]string) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(profileID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot set: %w", err)
	}
	return nil
}

func (c *SnapshotCache) Invalidate(ctx context.Context, profileID string) error {
	if err := c.client.Del(ctx, c.key(profileID)).Err(); err != nil {
		return fmt.Errorf("snapshot invalidate: %w", err)
	}
	return nil
}

func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
