package querycache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSnapshots(t *testing.T) *RedisSnapshots {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSnapshots(client, "", 0)
}

func TestSnapshotRoundTrip(t *testing.T) {
	snapshots := newTestSnapshots(t)

	c := NewClient(Options{Snapshots: snapshots})
	key := NewKey("patients", map[string]any{"page": float64(1)})
	_, err := c.Fetch(context.Background(), key, func(ctx context.Context) (any, error) {
		return map[string]any{"count": float64(2)}, nil
	}, QueryOptions{})
	require.NoError(t, err)
	require.NoError(t, c.SaveSnapshot(context.Background()))
	c.Close()

	warm := NewClient(Options{Snapshots: snapshots})
	defer warm.Close()
	require.NoError(t, warm.RestoreSnapshot(context.Background()))

	entry, ok := warm.Get(key)
	require.True(t, ok, "restored client must hold the persisted key")

	raw, ok := entry.Data.(json.RawMessage)
	require.True(t, ok, "restored data is raw JSON")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, float64(2), decoded["count"])
}

func TestSnapshotSkipsErroredEntries(t *testing.T) {
	snapshots := newTestSnapshots(t)

	c := NewClient(Options{Snapshots: snapshots})
	bad := NewKey("payments", nil)
	_, _ = c.Fetch(context.Background(), bad, func(ctx context.Context) (any, error) {
		return nil, context.DeadlineExceeded
	}, QueryOptions{})
	require.NoError(t, c.SaveSnapshot(context.Background()))
	c.Close()

	warm := NewClient(Options{Snapshots: snapshots})
	defer warm.Close()
	require.NoError(t, warm.RestoreSnapshot(context.Background()))
	_, ok := warm.Get(bad)
	require.False(t, ok, "errored entries must not be persisted")
}

func TestRestoreWithoutSnapshotIsNoop(t *testing.T) {
	snapshots := newTestSnapshots(t)
	c := NewClient(Options{Snapshots: snapshots})
	defer c.Close()
	require.NoError(t, c.RestoreSnapshot(context.Background()))
}
