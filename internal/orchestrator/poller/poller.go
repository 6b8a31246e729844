// Package poller fetches the live signals at an adaptive cadence and feeds
// them into the display store.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/nbtrackr/internal/customize"
	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/display"
	"github.com/GriffinCanCode/nbtrackr/internal/signal"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// Fetcher reads the three upstream signals. Each method returns that
// signal's default alongside any error.
type Fetcher interface {
	Boat(ctx context.Context) (signal.Boat, error)
	Stronghold(ctx context.Context) (signal.Stronghold, error)
	Blind(ctx context.Context) (signal.Blind, error)
}

// ConfigSource provides the current render configuration.
type ConfigSource interface {
	Load() customize.RenderConfig
}

// Config holds poll cadences.
type Config struct {
	FastInterval time.Duration
	IdleInterval time.Duration
}

// Interval returns the delay before the next poll given the last snapshot:
// fast while a triangulation is surfacing or a blind result is showing.
func Interval(s display.Snapshot, cfg Config) time.Duration {
	if s.Triangulating() || s.BlindShowing {
		return cfg.FastInterval
	}
	return cfg.IdleInterval
}

// Poller runs poll cycles.
type Poller struct {
	fetch  Fetcher
	store  *display.Store
	source ConfigSource
	cfg    Config
	now    func() time.Time

	unreachable atomic.Bool
	onCycle     func(display.Snapshot)
}

// New creates a poller. onCycle, if non-nil, runs after every applied cycle.
func New(fetch Fetcher, store *display.Store, source ConfigSource, cfg Config, onCycle func(display.Snapshot)) *Poller {
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = DefaultFastInterval
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = DefaultIdleInterval
	}
	return &Poller{
		fetch:   fetch,
		store:   store,
		source:  source,
		cfg:     cfg,
		now:     time.Now,
		onCycle: onCycle,
	}
}

// Run polls until ctx is done or stopCh closes. The first cycle runs
// immediately.
func (p *Poller) Run(ctx context.Context, stopCh <-chan struct{}) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-timer.C:
			snap := p.PollOnce(ctx)
			if p.onCycle != nil {
				p.onCycle(snap)
			}
			timer.Reset(Interval(snap, p.cfg))
		}
	}
}

// PollOnce fetches all three signals concurrently and applies them in one
// step. Failed fetches contribute their defaults; nothing is returned as an
// error.
func (p *Poller) PollOnce(ctx context.Context) display.Snapshot {
	ctx, span := trace.StartSpan(ctx, "poll_cycle")
	defer span.End()

	var (
		g          errgroup.Group
		boat       signal.Boat
		stronghold signal.Stronghold
		blind      signal.Blind

		boatErr, shErr, blindErr error
	)
	// No shared cancellation: one slow or failing endpoint must not abort
	// the others.
	g.Go(func() error { boat, boatErr = p.fetch.Boat(ctx); return nil })
	g.Go(func() error { stronghold, shErr = p.fetch.Stronghold(ctx); return nil })
	g.Go(func() error { blind, blindErr = p.fetch.Blind(ctx); return nil })
	_ = g.Wait()

	if boatErr != nil {
		boat = signal.DefaultBoat()
	}
	if shErr != nil {
		stronghold = signal.DefaultStronghold()
	}
	if blindErr != nil {
		blind = signal.DefaultBlind()
	}
	p.report(ctx, map[string]error{"boat": boatErr, "stronghold": shErr, "blind": blindErr})

	hideAfter := p.source.Load().HideAfter()
	snap := p.store.Apply(signal.Poll{Boat: boat, Stronghold: stronghold, Blind: blind}, p.now(), hideAfter)

	span.SetAttr("result_type", string(snap.Stronghold.ResultType))
	span.SetAttr("boat", string(snap.Boat.State))
	return snap
}

// report logs reachability transitions once and other failures at debug.
func (p *Poller) report(ctx context.Context, errs map[string]error) {
	log := trace.Logger(ctx)
	unreachable := false
	for endpoint, err := range errs {
		if err == nil {
			continue
		}
		if apperrors.IsCode(err, apperrors.CodeUpstreamUnreachable) {
			unreachable = true
			continue
		}
		log.Debug("signal fetch failed", "endpoint", endpoint, "code", apperrors.CodeOf(err).String(), "error", err)
	}

	if unreachable && !p.unreachable.Swap(true) {
		log.Warn("localization tool unreachable; is it running with the API enabled?")
	} else if !unreachable && p.unreachable.Swap(false) {
		log.Info("localization tool reachable again")
	}
}

// Reachable reports whether the last cycle reached the upstream.
func (p *Poller) Reachable() bool { return !p.unreachable.Load() }
