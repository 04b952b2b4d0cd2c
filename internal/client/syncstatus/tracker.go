// Package syncstatus derives a single user-facing sync indicator from
// cache activity and server reachability.
package syncstatus

import (
	"context"
	"sync"
	"time"

	"github.com/akgupta-cs/mediavault/internal/client/cache"
	"github.com/akgupta-cs/mediavault/internal/i18n"
	"github.com/akgupta-cs/mediavault/internal/logging"
)

// Status is the aggregate sync state. When several apply at once the
// most severe wins: Offline > Error > Syncing > JustSynced > Idle.
type Status int

const (
	StatusIdle Status = iota
	StatusJustSynced
	StatusSyncing
	StatusError
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusJustSynced:
		return "just-synced"
	case StatusSyncing:
		return "syncing"
	case StatusError:
		return "error"
	case StatusOffline:
		return "offline"
	default:
		return "idle"
	}
}

// justSyncedWindow is how long a completed sync shows as "just now".
const justSyncedWindow = 2 * time.Second

// Tracker folds cache events and connectivity probes into a Status.
// Register it with cache.Subscribe and feed SetOnline from a watcher.
type Tracker struct {
	log logging.Logger

	mu          sync.Mutex
	online      bool
	inFlight    map[cache.Key]struct{}
	failed      bool
	lastSync    time.Time
	onReconnect func()

	now func() time.Time
}

func NewTracker(log logging.Logger) *Tracker {
	return &Tracker{
		log:      log,
		online:   true,
		inFlight: make(map[cache.Key]struct{}),
		now:      time.Now,
	}
}

// OnReconnect registers a callback fired when connectivity returns
// after an offline period. Used to refresh every query at once.
func (t *Tracker) OnReconnect(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReconnect = fn
}

// HandleEvent is the cache.Subscribe hook.
func (t *Tracker) HandleEvent(ev cache.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case cache.EventFetchStarted:
		t.inFlight[ev.Key] = struct{}{}
	case cache.EventFetchSucceeded:
		delete(t.inFlight, ev.Key)
		t.failed = false
		t.lastSync = ev.At
	case cache.EventFetchFailed:
		delete(t.inFlight, ev.Key)
		t.failed = true
	case cache.EventCleared:
		t.inFlight = make(map[cache.Key]struct{})
		t.failed = false
		t.lastSync = time.Time{}
	}
}

// SetOnline records the reachability probe result. An offline-to-online
// transition fires the reconnect callback.
func (t *Tracker) SetOnline(online bool) {
	t.mu.Lock()
	wasOnline := t.online
	t.online = online
	fn := t.onReconnect
	t.mu.Unlock()

	if online && !wasOnline && fn != nil {
		fn()
	}
}

func (t *Tracker) Online() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case !t.online:
		return StatusOffline
	case t.failed:
		return StatusError
	case len(t.inFlight) > 0:
		return StatusSyncing
	case !t.lastSync.IsZero() && t.now().Sub(t.lastSync) <= justSyncedWindow:
		return StatusJustSynced
	default:
		return StatusIdle
	}
}

// Describe renders the status in the given language, including the
// relative last-sync time when idle.
func (t *Tracker) Describe(lang i18n.Language) string {
	status := t.Status()

	switch status {
	case StatusOffline:
		return i18n.T(lang, i18n.KeySyncOffline)
	case StatusError:
		return i18n.T(lang, i18n.KeySyncError)
	case StatusSyncing:
		return i18n.T(lang, i18n.KeySyncing)
	case StatusJustSynced:
		return i18n.T(lang, i18n.KeySyncedJustNow)
	}

	t.mu.Lock()
	lastSync := t.lastSync
	since := t.now().Sub(lastSync)
	t.mu.Unlock()

	if lastSync.IsZero() {
		return i18n.T(lang, i18n.KeySyncIdle)
	}
	minutes := int(since / time.Minute)
	if minutes < 1 {
		return i18n.T(lang, i18n.KeySyncedJustNow)
	}
	return i18n.T(lang, i18n.KeySyncedMinutesAgo, minutes)
}

// Watch probes the server at the given interval until ctx is cancelled,
// keeping the online flag current.
func (t *Tracker) Watch(ctx context.Context, interval time.Duration, ping func(ctx context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := ping(ctx)
			if err != nil {
				t.log.Debug(ctx, "server unreachable", "error", err)
			}
			t.SetOnline(err == nil)
		}
	}
}
