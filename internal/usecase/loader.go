package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	applogger "FinDash/pkg/logger"
)

const (
	DefaultRefreshInterval = 5 * time.Second
	defaultRefreshTimeout  = 10 * time.Second
)

// SnapshotArchiver persists applied snapshots. seq is the refresh that
// applied snap; it grows with every refresh issued.
type SnapshotArchiver interface {
	Archive(ctx context.Context, seq uint64, snap *models.Snapshot) error
}

// LoaderOption configures SnapshotLoader.
type LoaderOption func(*SnapshotLoader)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) LoaderOption {
	return func(l *SnapshotLoader) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithRefreshTimeout bounds a single fetch started by the timer.
func WithRefreshTimeout(d time.Duration) LoaderOption {
	return func(l *SnapshotLoader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithArchiver persists every applied snapshot.
func WithArchiver(a SnapshotArchiver) LoaderOption {
	return func(l *SnapshotLoader) {
		l.archiver = a
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *SnapshotLoader) {
		l.now = now
	}
}

// SnapshotLoader owns the dashboard state. It polls the snapshot source,
// reduces each result into a new DashboardState and publishes it whole.
// Refreshes may overlap; a result is dropped if a refresh issued after it
// has already been applied.
type SnapshotLoader struct {
	source   repository.SnapshotSource
	archiver SnapshotArchiver
	metrics  repository.Metrics
	logger   *applogger.Logger
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	state    atomic.Pointer[models.DashboardState]
	snapshot atomic.Pointer[models.Snapshot]
	issued   atomic.Uint64

	applyMu sync.Mutex
	applied uint64

	subMu  sync.RWMutex
	subs   map[uint64]chan *models.DashboardState
	nextID uint64

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSnapshotLoader creates a loader in its initial, pre-load state.
func NewSnapshotLoader(
	source repository.SnapshotSource,
	metrics repository.Metrics,
	logger *applogger.Logger,
	opts ...LoaderOption,
) *SnapshotLoader {
	l := &SnapshotLoader{
		source:   source,
		metrics:  metrics,
		logger:   logger,
		interval: DefaultRefreshInterval,
		timeout:  defaultRefreshTimeout,
		now:      time.Now,
		subs:     make(map[uint64]chan *models.DashboardState),
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	initial := InitialState(l.now())
	l.state.Store(&initial)
	return l
}

// Current returns the latest state. Callers must not modify it.
func (l *SnapshotLoader) Current() *models.DashboardState {
	return l.state.Load()
}

// Snapshot returns the last applied snapshot, or nil before the first one.
func (l *SnapshotLoader) Snapshot() *models.Snapshot {
	return l.snapshot.Load()
}

// Source describes where snapshots are read from.
func (l *SnapshotLoader) Source() string {
	return l.source.Location()
}

// Refresh fetches one snapshot and applies it. On error the current state
// is kept and the error returned. A result overtaken by a newer refresh is
// discarded and the newer state is returned.
func (l *SnapshotLoader) Refresh(ctx context.Context) (*models.DashboardState, error) {
	seq := l.issued.Add(1)
	start := time.Now()

	snap, err := l.source.Fetch(ctx)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		l.metrics.RecordRefresh("error", elapsed)
		l.metrics.RecordError("snapshot_fetch")
		l.logger.Warn("snapshot refresh failed, keeping previous state",
			applogger.String("source", l.source.Location()),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("refresh snapshot: %w", err)
	}

	next, ok := l.apply(seq, snap)
	if !ok {
		l.metrics.RecordRefresh("stale", elapsed)
		l.metrics.RecordStaleDrop()
		l.logger.Debug("stale snapshot dropped", applogger.Int64("seq", int64(seq)))
		return l.Current(), nil
	}

	l.metrics.RecordRefresh("ok", elapsed)
	if snap.MarketStats != nil {
		l.metrics.RecordPanicScore(snap.MarketStats.PanicScore)
	}

	if l.archiver != nil {
		if err := l.archiver.Archive(ctx, seq, snap); err != nil {
			l.logger.Warn("snapshot archive failed", applogger.Error(err))
		}
	}
	return next, nil
}

func (l *SnapshotLoader) apply(seq uint64, snap *models.Snapshot) (*models.DashboardState, bool) {
	l.applyMu.Lock()
	defer l.applyMu.Unlock()

	if seq < l.applied {
		return nil, false
	}
	next := Reduce(*l.state.Load(), snap, l.now())
	l.state.Store(&next)
	l.snapshot.Store(snap)
	l.applied = seq
	l.publish(&next)
	return &next, true
}

// Trigger requests an out-of-band refresh without waiting for it. Requests
// coalesce while one is pending.
func (l *SnapshotLoader) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Start refreshes immediately, then once per interval and on Trigger.
// Each refresh runs in its own goroutine so a slow fetch never delays the
// timer.
func (l *SnapshotLoader) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		l.spawn(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.spawn(ctx)
			case <-l.trigger:
				l.spawn(ctx)
			}
		}
	}()
	l.logger.Info("snapshot loader started",
		applogger.String("source", l.source.Location()),
		applogger.Duration("interval_ms", l.interval),
	)
}

func (l *SnapshotLoader) spawn(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		rctx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()
		_, _ = l.Refresh(rctx)
	}()
}

// Stop cancels the timer and waits for in-flight refreshes.
func (l *SnapshotLoader) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()

	l.subMu.Lock()
	for id, ch := range l.subs {
		close(ch)
		delete(l.subs, id)
	}
	l.subMu.Unlock()
}

// Subscribe returns a channel receiving every new state and a function to
// unsubscribe. A slow reader only ever sees the newest pending state.
func (l *SnapshotLoader) Subscribe() (<-chan *models.DashboardState, func()) {
	ch := make(chan *models.DashboardState, 1)

	l.subMu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.subMu.Unlock()

	return ch, func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if c, ok := l.subs[id]; ok {
			close(c)
			delete(l.subs, id)
		}
	}
}

// publish runs under applyMu so subscribers see states in revision order.
func (l *SnapshotLoader) publish(s *models.DashboardState) {
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	for _, ch := range l.subs {
		select {
		case ch <- s:
		default:
			// Replace the unread state with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
