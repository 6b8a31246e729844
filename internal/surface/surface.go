// Package surface delivers composed overlays to a presentation target.
// Producers post commands to a Mailbox; a single presenter applies them.
package surface

import (
	"context"
	"sync/atomic"
	"time"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/compositor"
	"github.com/GriffinCanCode/nbtrackr/internal/syncx"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// RetryDelay is how long the presenter waits before re-applying a command
// the surface rejected.
const RetryDelay = 250 * time.Millisecond

// Surface is a presentation target. Only the presenter calls it.
type Surface interface {
	Show(ctx context.Context, a *compositor.Artifact) error
	Hide(ctx context.Context) error
	PlaceAt(ctx context.Context, x, y int) error
}

// Command is a frame to present; a nil Artifact hides the overlay.
type Command struct {
	Artifact *compositor.Artifact
	seq      uint64
}

// Placement moves the surface.
type Placement struct {
	X, Y int
}

// Mailbox holds the latest frame command and the latest placement. Newer
// posts replace older ones that were not yet delivered.
type Mailbox struct {
	frames  *syncx.Slot[Command]
	places  *syncx.Slot[Placement]
	visible atomic.Bool
	seq     atomic.Uint64

	// a rejected show is held for retry
	staleShow atomic.Bool

	// held commands the surface rejected; presenter-owned.
	heldFrame *Command
	heldPlace *Placement
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		frames: syncx.NewSlot[Command](),
		places: syncx.NewSlot[Placement](),
	}
}

// PostShow queues a to be shown.
func (m *Mailbox) PostShow(a *compositor.Artifact) {
	m.visible.Store(true)
	m.staleShow.Store(false)
	m.frames.Put(Command{Artifact: a, seq: m.seq.Add(1)})
}

// PostHide queues a hide.
func (m *Mailbox) PostHide() {
	m.visible.Store(false)
	m.staleShow.Store(false)
	m.frames.Put(Command{seq: m.seq.Add(1)})
}

// PostPlace queues a move to (x, y).
func (m *Mailbox) PostPlace(x, y int) {
	m.places.Put(Placement{X: x, Y: y})
}

// Visible reports whether the overlay is, or is about to be, on screen.
// It turns false when the surface rejects a command.
func (m *Mailbox) Visible() bool {
	return m.visible.Load()
}

// RetryingShow reports whether a frame the surface rejected is waiting to
// be shown again.
func (m *Mailbox) RetryingShow() bool {
	return m.staleShow.Load()
}

// Pending reports whether a rejected command is waiting for a retry.
func (m *Mailbox) Pending() bool {
	return m.heldFrame != nil || m.heldPlace != nil
}

// Deliver applies the pending placement and frame to s. A rejected command
// is kept for the next call unless a newer one replaces it. Once a frame is
// applied, Visible follows it unless a newer frame was posted meanwhile.
// Only the presenter calls Deliver.
func (m *Mailbox) Deliver(ctx context.Context, s Surface) error {
	if p, ok := m.places.Take(); ok {
		m.heldPlace = &p
	}
	if c, ok := m.frames.Take(); ok {
		m.heldFrame = &c
	}

	var firstErr error
	if p := m.heldPlace; p != nil {
		if err := s.PlaceAt(ctx, p.X, p.Y); err != nil {
			firstErr = apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "place overlay")
		} else {
			m.heldPlace = nil
		}
	}
	if c := m.heldFrame; c != nil {
		var err error
		if c.Artifact == nil {
			err = s.Hide(ctx)
		} else {
			err = s.Show(ctx, c.Artifact)
		}
		if err != nil {
			m.visible.Store(false)
			m.staleShow.Store(c.Artifact != nil)
			if firstErr == nil {
				firstErr = apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "present overlay")
			}
		} else {
			m.heldFrame = nil
			m.staleShow.Store(false)
			if m.seq.Load() == c.seq {
				m.visible.Store(c.Artifact != nil)
			}
		}
	}
	return firstErr
}

// Run is the presenter loop: it sleeps until a command arrives and applies
// it to s. Rejected commands are retried after RetryDelay.
func Run(ctx context.Context, s Surface, m *Mailbox) {
	log := trace.Logger(ctx)
	var retry <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.frames.Ready():
		case <-m.places.Ready():
		case <-retry:
		}

		retry = nil
		if err := m.Deliver(ctx, s); err != nil {
			log.Warn("surface rejected command", "error", err)
			retry = time.After(RetryDelay)
		}
	}
}
