// Package cache implements the client-side query cache: fetched results
// are kept per resource and principal, served while fresh, refetched on
// demand and refreshed in the background at class-specific intervals.
package cache

import (
	"sync"
	"time"

	"github.com/akgupta-cs/mediavault/internal/logging"
)

// Class determines how often a query is refreshed in the background.
type Class int

const (
	// ClassActive covers data the user is looking at right now.
	ClassActive Class = iota
	// ClassIdle covers data that changes occasionally.
	ClassIdle
	// ClassBackground covers near-static data.
	ClassBackground
)

// Interval returns the background refresh period for the class.
func (c Class) Interval() time.Duration {
	switch c {
	case ClassActive:
		return 10 * time.Second
	case ClassIdle:
		return 30 * time.Second
	default:
		return 60 * time.Second
	}
}

func (c Class) String() string {
	switch c {
	case ClassActive:
		return "active"
	case ClassIdle:
		return "idle"
	default:
		return "background"
	}
}

// Key identifies one cached result. Principal is part of the key so
// switching accounts never serves another user's data.
type Key struct {
	Resource  string
	Principal string
}

// EventType labels cache lifecycle events.
type EventType int

const (
	EventFetchStarted EventType = iota
	EventFetchSucceeded
	EventFetchFailed
	EventInvalidated
	EventCleared
)

// Event is delivered to subscribers on every cache state change. Err is
// set only for EventFetchFailed.
type Event struct {
	Key  Key
	Type EventType
	Err  error
	At   time.Time
}

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Cache stores query results keyed by resource and principal.
type Cache struct {
	log logging.Logger

	mu       sync.Mutex
	entries  map[Key]*entry
	inflight map[Key]chan struct{}
	subs     []func(Event)

	// now is swapped in tests.
	now func() time.Time
}

func New(log logging.Logger) *Cache {
	return &Cache{
		log:      log,
		entries:  make(map[Key]*entry),
		inflight: make(map[Key]chan struct{}),
		now:      time.Now,
	}
}

// Subscribe registers fn to receive every cache event. Delivery is
// synchronous, so fn must be quick and must not call back into the
// cache.
func (c *Cache) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Cache) emit(ev Event) {
	c.mu.Lock()
	subs := make([]func(Event), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Invalidate marks entries stale so the next read refetches. Unknown
// keys are ignored, which makes repeated invalidation harmless.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	invalidated := make([]Key, 0, len(keys))
	for _, key := range keys {
		if e, ok := c.entries[key]; ok && !e.stale {
			e.stale = true
			invalidated = append(invalidated, key)
		}
	}
	now := c.now()
	c.mu.Unlock()

	for _, key := range invalidated {
		c.emit(Event{Key: key, Type: EventInvalidated, At: now})
	}
}

// InvalidateResource marks every principal's entry for a resource
// stale.
func (c *Cache) InvalidateResource(resource string) {
	c.mu.Lock()
	keys := make([]Key, 0)
	for key := range c.entries {
		if key.Resource == resource {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	c.Invalidate(keys...)
}

// Clear drops every entry. Used when the session ends.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	now := c.now()
	c.mu.Unlock()

	c.emit(Event{Type: EventCleared, At: now})
}

func (c *Cache) lookup(key Key) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

func (c *Cache) store(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, fetchedAt: c.now()}
}
