package querycache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devSoft1007/netraAI-sub000/pkg/logging"
)

// ErrClosed is returned by operations on a disposed client.
var ErrClosed = errors.New("querycache: client closed")

// FetchFunc loads the value for a key from the backend.
type FetchFunc func(ctx context.Context) (any, error)

// Entry is the cached state for one key.
type Entry struct {
	Key       Key
	Data      any
	Err       error
	FetchedAt time.Time
	Stale     bool
}

// EventType classifies subscriber notifications.
type EventType int

const (
	// EventUpdated fires when a fetch stores fresh data for the key.
	EventUpdated EventType = iota
	// EventInvalidated fires when a mutation marks the key stale.
	// Subscribers conventionally refetch on this event.
	EventInvalidated
	// EventError fires when a fetch for the key fails.
	EventError
)

// Event is delivered to subscribers of a key.
type Event struct {
	Key   Key
	Type  EventType
	Entry Entry
}

// Options configures a cache client.
type Options struct {
	// StaleTime is the default freshness window. Zero means entries stay
	// fresh until explicitly invalidated (the explicit-invalidation-only
	// policy); a positive value is a TTL with refetch on next lookup.
	StaleTime time.Duration
	// MaxIdle evicts an entry this long after its last observer
	// unsubscribes. Zero keeps entries for the session.
	MaxIdle time.Duration
	// Snapshots optionally persists cache contents across restarts.
	Snapshots SnapshotStore
	Metrics   *Metrics
	Logger    *logging.Logger
}

// QueryOptions tune a single lookup.
type QueryOptions struct {
	// Disabled skips fetching entirely and returns whatever is cached.
	// Callers use this to gate lookups whose inputs are not yet known
	// (e.g. an empty record id).
	Disabled bool
	// StaleTime overrides the client default for this lookup. A pointer
	// to zero means always refetch.
	StaleTime *time.Duration
	// Retry re-runs a failed fetch this many additional times.
	Retry int
}

// StaleFor is a convenience for building a per-lookup StaleTime override.
func StaleFor(d time.Duration) *time.Duration {
	return &d
}

type subscriber struct {
	id int
	fn func(Event)
}

// Client is a process-wide cache of server responses keyed by structural
// keys. It is constructed explicitly and passed down by injection so tests
// get a fresh instance each. All state is guarded by one mutex; fetches
// for the same key are shared via singleflight.
type Client struct {
	opts    Options
	logger  *logging.Logger
	metrics *Metrics

	group singleflight.Group

	mu         sync.Mutex
	entries    map[string]*Entry
	subs       map[string][]subscriber
	idleTimers map[string]*time.Timer
	nextSub    int
	closed     bool
}

// NewClient creates a cache client.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		opts:       opts,
		logger:     logger,
		metrics:    opts.Metrics,
		entries:    make(map[string]*Entry),
		subs:       make(map[string][]subscriber),
		idleTimers: make(map[string]*time.Timer),
	}
}

// Close disposes the client. Subsequent fetches fail with ErrClosed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.idleTimers {
		t.Stop()
	}
	c.idleTimers = map[string]*time.Timer{}
	c.entries = map[string]*Entry{}
	c.subs = map[string][]subscriber{}
	c.closed = true
}

// Get returns a copy of the cached entry for key, if present.
func (c *Client) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.ID()]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Fetch returns the cached value for key, loading it with fn when the
// entry is missing or stale. Concurrent fetches for the same key share one
// execution. A later fetch's resolution overwrites an earlier one's
// (last-settled-wins).
func (c *Client) Fetch(ctx context.Context, key Key, fn FetchFunc, opts QueryOptions) (any, error) {
	id := key.ID()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := c.entries[id]
	if opts.Disabled {
		var data any
		if ok {
			data = e.Data
		}
		c.mu.Unlock()
		return data, nil
	}
	if ok && e.Err == nil && !c.staleLocked(e, opts) {
		data := e.Data
		c.mu.Unlock()
		c.metrics.observeHit(key.Resource)
		return data, nil
	}
	c.mu.Unlock()

	c.metrics.observeMiss(key.Resource)
	v, err, shared := c.group.Do(id, func() (any, error) {
		var lastErr error
		for attempt := 0; attempt <= opts.Retry; attempt++ {
			v, err := fn(ctx)
			if err == nil {
				c.store(key, v)
				c.metrics.observeFetch(key.Resource, "ok")
				return v, nil
			}
			lastErr = err
		}
		c.storeError(key, lastErr)
		c.metrics.observeFetch(key.Resource, "error")
		return nil, lastErr
	})
	if shared {
		c.metrics.observeShared()
	}
	return v, err
}

// Invalidate marks the given keys stale and notifies their observers,
// which conventionally refetch. Unknown keys are ignored.
func (c *Client) Invalidate(keys ...Key) {
	for _, key := range keys {
		id := key.ID()
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		e, ok := c.entries[id]
		var ev Event
		if ok {
			e.Stale = true
			ev = Event{Key: key, Type: EventInvalidated, Entry: *e}
		} else {
			ev = Event{Key: key, Type: EventInvalidated, Entry: Entry{Key: key, Stale: true}}
		}
		hasSubs := len(c.subs[id]) > 0
		c.mu.Unlock()
		if ok || hasSubs {
			c.metrics.observeInvalidation(key.Resource)
			c.notify(id, ev)
		}
	}
}

// InvalidateResource marks every cached key of a resource stale, whatever
// its filter params. Mutations use this to refresh all list variants.
func (c *Client) InvalidateResource(resource string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	keys := make([]Key, 0, 4)
	for _, e := range c.entries {
		if e.Key.Resource == resource {
			keys = append(keys, e.Key)
		}
	}
	c.mu.Unlock()
	c.Invalidate(keys...)
}

// Subscribe registers fn as an observer of key and returns an unsubscribe
// func. Notifications run synchronously on the goroutine that caused the
// event; handlers must not fetch the notifying key from inside an
// EventUpdated callback.
func (c *Client) Subscribe(key Key, fn func(Event)) func() {
	id := key.ID()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	if t, ok := c.idleTimers[id]; ok {
		t.Stop()
		delete(c.idleTimers, id)
	}
	c.nextSub++
	subID := c.nextSub
	c.subs[id] = append(c.subs[id], subscriber{id: subID, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.subs[id]
		for i, s := range subs {
			if s.id == subID {
				c.subs[id] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(c.subs[id]) == 0 {
			delete(c.subs, id)
			c.armIdleTimerLocked(id)
		}
	}
}

// ObserverCount reports how many subscribers currently watch key.
func (c *Client) ObserverCount(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[key.ID()])
}

func (c *Client) staleLocked(e *Entry, opts QueryOptions) bool {
	if e.Stale {
		return true
	}
	staleTime := c.opts.StaleTime
	if opts.StaleTime != nil {
		staleTime = *opts.StaleTime
		if staleTime == 0 {
			return true
		}
	}
	if staleTime == 0 {
		return false
	}
	return time.Since(e.FetchedAt) > staleTime
}

func (c *Client) store(key Key, data any) {
	id := key.ID()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	e := &Entry{Key: key, Data: data, FetchedAt: time.Now()}
	c.entries[id] = e
	ev := Event{Key: key, Type: EventUpdated, Entry: *e}
	c.mu.Unlock()
	c.notify(id, ev)
}

func (c *Client) storeError(key Key, err error) {
	id := key.ID()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	e, ok := c.entries[id]
	if !ok {
		e = &Entry{Key: key}
		c.entries[id] = e
	}
	// Previous data is kept so consumers can keep rendering it.
	e.Err = err
	e.Stale = true
	ev := Event{Key: key, Type: EventError, Entry: *e}
	c.mu.Unlock()
	c.notify(id, ev)
}

func (c *Client) notify(id string, ev Event) {
	c.mu.Lock()
	subs := make([]subscriber, len(c.subs[id]))
	copy(subs, c.subs[id])
	c.mu.Unlock()
	for _, s := range subs {
		s.fn(ev)
	}
}

func (c *Client) armIdleTimerLocked(id string) {
	if c.opts.MaxIdle <= 0 || c.closed {
		return
	}
	if t, ok := c.idleTimers[id]; ok {
		t.Stop()
	}
	c.idleTimers[id] = time.AfterFunc(c.opts.MaxIdle, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(c.subs[id]) > 0 {
			return
		}
		delete(c.entries, id)
		delete(c.idleTimers, id)
	})
}
