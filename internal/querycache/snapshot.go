package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists cache contents so a fresh process can warm-start
// from the previous session's data. Restored entries are still subject to
// the staleness policy.
type SnapshotStore interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}

type persistedEntry struct {
	Resource  string          `json:"resource"`
	Params    map[string]any  `json:"params,omitempty"`
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// SaveSnapshot serializes all healthy entries to the configured snapshot
// store. Entries holding errors or unmarshalable data are skipped.
func (c *Client) SaveSnapshot(ctx context.Context) error {
	if c.opts.Snapshots == nil {
		return nil
	}
	c.mu.Lock()
	persisted := make([]persistedEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Err != nil {
			continue
		}
		raw, err := json.Marshal(e.Data)
		if err != nil {
			continue
		}
		persisted = append(persisted, persistedEntry{
			Resource:  e.Key.Resource,
			Params:    e.Key.Params,
			Data:      raw,
			FetchedAt: e.FetchedAt,
		})
	}
	c.mu.Unlock()

	blob, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("querycache: marshal snapshot: %w", err)
	}
	if err := c.opts.Snapshots.Save(ctx, blob); err != nil {
		return fmt.Errorf("querycache: save snapshot: %w", err)
	}
	return nil
}

// RestoreSnapshot loads persisted entries, skipping keys that already have
// fresher data. Restored values are raw JSON; consumers decode them through
// the same adapters as live responses.
func (c *Client) RestoreSnapshot(ctx context.Context) error {
	if c.opts.Snapshots == nil {
		return nil
	}
	blob, err := c.opts.Snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("querycache: load snapshot: %w", err)
	}
	if len(blob) == 0 {
		return nil
	}
	var persisted []persistedEntry
	if err := json.Unmarshal(blob, &persisted); err != nil {
		return fmt.Errorf("querycache: decode snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	for _, p := range persisted {
		key := Key{Resource: p.Resource, Params: p.Params}
		id := key.ID()
		if existing, ok := c.entries[id]; ok && existing.FetchedAt.After(p.FetchedAt) {
			continue
		}
		c.entries[id] = &Entry{
			Key:       key,
			Data:      p.Data,
			FetchedAt: p.FetchedAt,
		}
	}
	return nil
}

// RedisSnapshots stores snapshots in Redis under a single key.
type RedisSnapshots struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSnapshots creates a Redis-backed snapshot store. ttl of zero
// keeps snapshots until overwritten.
func NewRedisSnapshots(client *redis.Client, key string, ttl time.Duration) *RedisSnapshots {
	if key == "" {
		key = "netra:querycache:snapshot"
	}
	return &RedisSnapshots{client: client, key: key, ttl: ttl}
}

func (s *RedisSnapshots) Save(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

func (s *RedisSnapshots) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
