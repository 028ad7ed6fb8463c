// Package poller refreshes the enriched pull-request list on a fixed interval
// and serves the most recent successful result to any number of readers.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/logging"
)

// Runner produces one enrichment pass.
type Runner interface {
	Run(ctx context.Context) (enrichment.Result, error)
}

// SnapshotStore persists snapshots; optional.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

type Snapshot struct {
	ID           uuid.UUID                `json:"id"`
	TakenAt      time.Time                `json:"takenAt"`
	PullRequests []enrichment.PullRequest `json:"pullRequests"`
	Failures     []enrichment.Failure     `json:"failures"`
}

type Option func(*Poller)

func WithStore(store SnapshotStore) Option {
	return func(p *Poller) { p.store = store }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

type Poller struct {
	runner   Runner
	interval time.Duration
	log      logging.Logger
	store    SnapshotStore
	metrics  *Metrics
	now      func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	lifetime context.Context
	latest   *Snapshot
	lastErr error
	subs    map[int]chan Snapshot
	nextSub int
}

func New(runner Runner, interval time.Duration, log logging.Logger, opts ...Option) *Poller {
	p := &Poller{
		runner:   runner,
		interval: interval,
		log:      log.WithName("poller"),
		now:      time.Now,
		lifetime: context.Background(),
		subs:     map[int]chan Snapshot{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
// Ticks are serial: a slow refresh delays the next one rather than overlapping it.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("starting poller", "interval", p.interval.String())
	p.mu.Lock()
	p.lifetime = ctx
	p.mu.Unlock()
	_, _ = p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped")
			p.closeSubscribers()
			return nil
		case <-ticker.C:
			_, _ = p.Refresh(ctx)
		}
	}
}

// Refresh runs one pass and publishes the result. Concurrent callers share a
// single in-flight pass. On failure the previous snapshot stays current.
//
// The pass runs on the poller's own context, bounded by the interval; ctx only
// limits how long this caller waits for it.
func (p *Poller) Refresh(ctx context.Context) (Snapshot, error) {
	ch := p.group.DoChan("refresh", func() (any, error) {
		runCtx, cancel := p.passContext()
		defer cancel()
		return p.refresh(runCtx)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

func (p *Poller) passContext() (context.Context, context.CancelFunc) {
	p.mu.RLock()
	base := p.lifetime
	p.mu.RUnlock()
	if p.interval <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, p.interval)
}

func (p *Poller) refresh(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	res, err := p.runner.Run(ctx)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		p.metrics.observeFailure(elapsed)
		p.mu.Lock()
		p.lastErr = err
		stale := p.latest != nil
		p.mu.Unlock()
		p.log.Error(err, "refresh failed", "serving_stale", stale)
		return Snapshot{}, err
	}

	snap := Snapshot{
		ID:           uuid.New(),
		TakenAt:      p.now().UTC(),
		PullRequests: res.PullRequests,
		Failures:     res.Failures,
	}
	p.metrics.observeSuccess(elapsed, snap)
	p.publish(snap)

	if p.store != nil {
		if err := p.store.SaveSnapshot(ctx, snap); err != nil {
			p.log.Error(err, "persist snapshot failed", "snapshot", snap.ID.String())
		}
	}
	p.log.Debug("snapshot published", "snapshot", snap.ID.String(), "pull_requests", len(snap.PullRequests))
	return snap, nil
}

func (p *Poller) publish(snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = &snap
	p.lastErr = nil
	for _, ch := range p.subs {
		// Drop the stale value a slow subscriber has not read yet.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Latest returns the most recent successful snapshot without any I/O.
// Before the first success it returns an empty snapshot and false.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return Snapshot{PullRequests: []enrichment.PullRequest{}, Failures: []enrichment.Failure{}}, false
	}
	return *p.latest, true
}

// LastError is the error of the most recent refresh, nil after a success.
func (p *Poller) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Subscribe returns a channel that immediately holds the latest snapshot, if
// any, and then receives every new one. Only the newest unread snapshot is
// kept. The returned func unsubscribes and closes the channel.
func (p *Poller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	if p.latest != nil {
		ch <- *p.latest
	}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(ch)
			}
		})
	}
}

func (p *Poller) closeSubscribers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}
