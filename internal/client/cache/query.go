package cache

import (
	"context"
	"time"
)

// QueryConfig describes one cached query.
type QueryConfig[T any] struct {
	// Resource names the data, e.g. "photos" or "storage-metrics".
	Resource string
	// Principal returns the current account identity. It is consulted
	// on every read so a login switch changes the key immediately.
	Principal func() string
	// Class picks the background refresh interval.
	Class Class
	// StaleFor is how long a fetched result is served without hitting
	// the network again.
	StaleFor time.Duration
	// Enabled gates fetching; a disabled query returns the zero value
	// without touching the network. Nil means always enabled.
	Enabled func() bool
	// Fetch loads the data from the server.
	Fetch func(ctx context.Context) (T, error)
}

// Query is a typed read path through the cache. Concurrent reads of the
// same key share a single fetch.
type Query[T any] struct {
	cache *Cache
	cfg   QueryConfig[T]
}

func NewQuery[T any](c *Cache, cfg QueryConfig[T]) *Query[T] {
	return &Query[T]{cache: c, cfg: cfg}
}

func (q *Query[T]) Key() Key {
	return Key{Resource: q.cfg.Resource, Principal: q.cfg.Principal()}
}

func (q *Query[T]) Class() Class { return q.cfg.Class }

func (q *Query[T]) enabled() bool {
	return q.cfg.Enabled == nil || q.cfg.Enabled()
}

// Get returns the cached value while it is fresh, refetching otherwise.
// On a failed refetch the previous value, if any, is returned together
// with the error so callers can keep showing stale data.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if !q.enabled() {
		return zero, nil
	}

	key := q.Key()
	if e, ok := q.cache.lookup(key); ok && !e.stale {
		if q.cache.now().Sub(e.fetchedAt) <= q.cfg.StaleFor {
			return e.value.(T), nil
		}
	}
	return q.refresh(ctx, key)
}

// Refresh bypasses freshness and always refetches.
func (q *Query[T]) Refresh(ctx context.Context) (T, error) {
	var zero T
	if !q.enabled() {
		return zero, nil
	}
	return q.refresh(ctx, q.Key())
}

// Poll lets the background poller drive the query without caring about
// its type.
func (q *Query[T]) Poll(ctx context.Context) error {
	_, err := q.Refresh(ctx)
	return err
}

func (q *Query[T]) refresh(ctx context.Context, key Key) (T, error) {
	var zero T

	// Coalesce concurrent refreshes of the same key into one fetch.
	q.cache.mu.Lock()
	if ch, ok := q.cache.inflight[key]; ok {
		q.cache.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		if e, ok := q.cache.lookup(key); ok {
			return e.value.(T), nil
		}
		return zero, nil
	}
	ch := make(chan struct{})
	q.cache.inflight[key] = ch
	q.cache.mu.Unlock()

	defer func() {
		q.cache.mu.Lock()
		delete(q.cache.inflight, key)
		q.cache.mu.Unlock()
		close(ch)
	}()

	q.cache.emit(Event{Key: key, Type: EventFetchStarted, At: q.cache.now()})

	value, err := q.cfg.Fetch(ctx)
	if err != nil {
		q.cache.emit(Event{Key: key, Type: EventFetchFailed, Err: err, At: q.cache.now()})
		if e, ok := q.cache.lookup(key); ok {
			return e.value.(T), err
		}
		return zero, err
	}

	q.cache.store(key, value)
	q.cache.emit(Event{Key: key, Type: EventFetchSucceeded, At: q.cache.now()})
	return value, nil
}
