package cache

import (
	"context"
	"sync"
	"time"

	"github.com/akgupta-cs/mediavault/internal/logging"
)

// Refresher is what the poller needs from a query: its refresh class
// and a way to trigger a refetch.
type Refresher interface {
	Class() Class
	Poll(ctx context.Context) error
}

// Poller refreshes registered queries in the background, one ticker per
// class. Failures are logged and retried on the next tick.
type Poller struct {
	log logging.Logger

	mu        sync.Mutex
	queries   []Refresher
	intervals map[Class]time.Duration
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewPoller(log logging.Logger) *Poller {
	return &Poller{
		log: log,
		intervals: map[Class]time.Duration{
			ClassActive:     ClassActive.Interval(),
			ClassIdle:       ClassIdle.Interval(),
			ClassBackground: ClassBackground.Interval(),
		},
	}
}

// SetInterval overrides the period for one class. Only useful before
// Start.
func (p *Poller) SetInterval(class Class, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intervals[class] = d
}

func (p *Poller) Register(rs ...Refresher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, rs...)
}

func (p *Poller) byClass(class Class) []Refresher {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Refresher, 0)
	for _, q := range p.queries {
		if q.Class() == class {
			out = append(out, q)
		}
	}
	return out
}

// Start launches the per-class refresh loops. Stop or cancelling ctx
// ends them.
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.cancel = cancel
	intervals := make(map[Class]time.Duration, len(p.intervals))
	for class, d := range p.intervals {
		intervals[class] = d
	}
	p.mu.Unlock()

	for class, interval := range intervals {
		p.wg.Add(1)
		go p.loop(ctx, class, interval)
	}
}

func (p *Poller) loop(ctx context.Context, class Class, interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshClass(ctx, class)
		}
	}
}

func (p *Poller) refreshClass(ctx context.Context, class Class) {
	for _, q := range p.byClass(class) {
		if err := q.Poll(ctx); err != nil {
			p.log.Debug(ctx, "background refresh failed", "class", class.String(), "error", err)
		}
	}
}

// RefreshAll refetches every registered query once, regardless of
// class. Called when connectivity comes back.
func (p *Poller) RefreshAll(ctx context.Context) {
	p.mu.Lock()
	queries := make([]Refresher, len(p.queries))
	copy(queries, p.queries)
	p.mu.Unlock()

	for _, q := range queries {
		if err := q.Poll(ctx); err != nil {
			p.log.Debug(ctx, "refresh failed", "error", err)
		}
	}
}

func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}
