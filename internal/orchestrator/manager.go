// Package orchestrator wires the overlay engine's long-running tasks.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/GriffinCanCode/nbtrackr/internal/config"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/blindtimer"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/compositor"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/display"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/poller"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/rendercache"
	"github.com/GriffinCanCode/nbtrackr/internal/position"
	"github.com/GriffinCanCode/nbtrackr/internal/surface"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// PositionStore persists the overlay position across runs.
type PositionStore interface {
	Load(ctx context.Context) (position.Point, bool, error)
	Save(ctx context.Context, p position.Point) error
}

// Deps are the Manager's collaborators. Positions may be nil.
type Deps struct {
	Fetcher   poller.Fetcher
	Config    poller.ConfigSource
	Positions PositionStore
	Mailbox   *surface.Mailbox
}

// Manager coordinates the poller, the render trigger and the blind
// monitor. Presentation happens elsewhere, by draining the mailbox.
type Manager struct {
	cfg       *config.Config
	store     *display.Store
	poller    *poller.Poller
	comp      *compositor.Compositor
	cache     *rendercache.Detector
	blind     *blindtimer.Monitor
	mb        *surface.Mailbox
	source    poller.ConfigSource
	positions PositionStore
	now       func() time.Time

	emissions atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a manager.
func New(cfg *config.Config, deps Deps) *Manager {
	store := display.NewStore()
	cache := rendercache.New()
	mb := deps.Mailbox
	if mb == nil {
		mb = surface.NewMailbox()
	}

	return &Manager{
		cfg:   cfg,
		store: store,
		poller: poller.New(deps.Fetcher, store, deps.Config, poller.Config{
			FastInterval: cfg.PollFastInterval,
			IdleInterval: cfg.PollIdleInterval,
		}, nil),
		comp:      compositor.New(),
		cache:     cache,
		blind:     blindtimer.New(store, mb, cache, cfg.BlindMaxTick),
		mb:        mb,
		source:    deps.Config,
		positions: deps.Positions,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Mailbox returns the mailbox the presenter drains.
func (m *Manager) Mailbox() *surface.Mailbox { return m.mb }

// Snapshot returns the current display state.
func (m *Manager) Snapshot() display.Snapshot { return m.store.Snapshot() }

// Reachable reports whether the last poll reached the upstream.
func (m *Manager) Reachable() bool { return m.poller.Reachable() }

// Emissions returns how many frame commands were posted.
func (m *Manager) Emissions() int64 { return m.emissions.Load() }

// Start restores the saved position and launches the engine tasks.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}
	ctx, m.cancel = context.WithCancel(ctx)

	m.restorePosition(ctx)

	m.goSafe(ctx, "poller", func(ctx context.Context) { m.poller.Run(ctx, m.stopCh) })
	m.goSafe(ctx, "render", m.renderLoop)
	m.goSafe(ctx, "blindtimer", m.blind.Run)
	return nil
}

// Stop cancels the engine tasks and waits for them. Moves reported after
// Stop are dropped.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	if cancel != nil {
		select {
		case <-m.stopCh:
		default:
			close(m.stopCh)
		}
	}
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
}

func (m *Manager) restorePosition(ctx context.Context) {
	if m.positions == nil {
		return
	}
	p, ok, err := m.positions.Load(ctx)
	if err != nil {
		trace.Logger(ctx).Warn("saved position unavailable", "error", err)
		return
	}
	if ok {
		m.mb.PostPlace(p.X, p.Y)
	}
}

// HandleMove persists a position reported by the surface after a drag.
func (m *Manager) HandleMove(x, y int) {
	if m.positions == nil {
		return
	}
	m.mu.Lock()
	select {
	case <-m.stopCh:
		m.mu.Unlock()
		return
	default:
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), PositionSaveTimeout)
		defer cancel()
		// The store logs its own failures.
		_ = m.positions.Save(ctx, position.Point{X: x, Y: y})
	}()
}

// goSafe runs fn in a goroutine, reporting a panic instead of crashing.
func (m *Manager) goSafe(ctx context.Context, name string, fn func(context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				sentry.CurrentHub().Recover(r)
				trace.Logger(ctx).Error("task panicked", "task", name, "panic", r)
			}
		}()
		fn(ctx)
	}()
}

func (m *Manager) renderLoop(ctx context.Context) {
	interval := m.cfg.RenderInterval
	if interval <= 0 {
		interval = DefaultRenderInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RenderOnce(ctx)
		}
	}
}

// RenderOnce runs one render trigger: it selects the visual for the
// current snapshot, skips it when nothing changed, and otherwise composes
// and posts it.
func (m *Manager) RenderOnce(ctx context.Context) rendercache.Decision {
	now := m.now()
	snap := m.store.Snapshot()
	rc := m.source.Load()
	mode := compositor.Select(snap, rc, now)

	if mode == compositor.ModeHidden {
		// A rejected show still held for retry must be replaced too.
		if !m.mb.Visible() && !m.mb.RetryingShow() {
			return rendercache.Skip
		}
		m.cache.Invalidate()
		m.post(nil)
		return rendercache.Render
	}

	in := rendercache.Input{
		Config:     rc,
		Boat:       snap.Boat,
		Stronghold: snap.Stronghold,
		Blind:      snap.Blind,
		Mode:       mode,
	}
	if mode == compositor.ModePinned {
		in.Pinned = compositor.PinnedStamp(rc.PinnedImagePath)
	}
	fp := rendercache.Fingerprint(in)
	visible := m.mb.Visible()
	if m.cache.Decide(fp, visible) == rendercache.Skip {
		return rendercache.Skip
	}

	ctx, span := trace.StartSpan(ctx, "render")
	defer span.End()
	span.SetAttr("mode", string(mode))

	art, err := m.comp.Compose(ctx, snap, rc, now)
	if err != nil {
		trace.Logger(ctx).Debug("compose failed", "mode", mode, "error", err)
	}
	if art == nil {
		m.cache.CommitEmpty(fp)
		if visible {
			m.post(nil)
			return rendercache.Render
		}
		return rendercache.Skip
	}
	m.cache.Commit(fp)
	m.post(art)
	return rendercache.Render
}

func (m *Manager) post(a *compositor.Artifact) {
	m.emissions.Add(1)
	if a == nil {
		m.mb.PostHide()
		return
	}
	m.mb.PostShow(a)
}
