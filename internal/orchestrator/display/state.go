// Package display reconciles raw signals into a debounced "what should be
// visible now" state.
package display

import (
	"time"

	"github.com/GriffinCanCode/nbtrackr/internal/signal"
)

// ShowWindow is how long a boat cue stays up once armed.
const ShowWindow = 10 * time.Second

// Kind is the boat cue currently armed.
type Kind uint8

const (
	KindNone Kind = iota
	KindValid
	KindError
)

func (k Kind) String() string {
	return [...]string{"none", "VALID", "ERROR"}[k]
}

func kindOf(s signal.BoatState) Kind {
	switch s {
	case signal.BoatValid:
		return KindValid
	case signal.BoatError:
		return KindError
	}
	return KindNone
}

// Deadline is a point in time, "never", or unset.
type Deadline struct {
	at         time.Time
	indefinite bool
}

// At returns a deadline at t.
func At(t time.Time) Deadline { return Deadline{at: t} }

// Never returns a deadline that does not expire.
func Never() Deadline { return Deadline{indefinite: true} }

// IsZero reports whether the deadline is unset.
func (d Deadline) IsZero() bool { return !d.indefinite && d.at.IsZero() }

// Indefinite reports whether the deadline never expires.
func (d Deadline) Indefinite() bool { return d.indefinite }

// Time returns the expiry instant; zero when unset or indefinite.
func (d Deadline) Time() time.Time { return d.at }

// Active reports whether now is before the deadline.
func (d Deadline) Active(now time.Time) bool {
	return d.indefinite || (!d.at.IsZero() && now.Before(d.at))
}

// Remaining returns the time left before a finite deadline.
func (d Deadline) Remaining(now time.Time) time.Duration {
	if d.indefinite || d.at.IsZero() {
		return 0
	}
	if r := d.at.Sub(now); r > 0 {
		return r
	}
	return 0
}

type blindKey struct {
	eval signal.Evaluation
	x, z int
}

// Snapshot is a consistent value copy of the display state.
type Snapshot struct {
	Boat       signal.Boat
	Stronghold signal.Stronghold
	Blind      signal.Blind

	LastShown    Kind
	ShowUntil    time.Time // zero once the window lapsed or was cleared
	LastAngle    float64
	HasLastAngle bool

	BlindDeadline Deadline
	BlindShowing  bool
}

// BoatVisible reports whether the armed boat cue is inside its window.
func (s Snapshot) BoatVisible(now time.Time) bool {
	return s.LastShown != KindNone && !s.ShowUntil.IsZero() && now.Before(s.ShowUntil)
}

// BlindVisible reports whether the blind result is showing within its
// deadline.
func (s Snapshot) BlindVisible(now time.Time) bool {
	return s.BlindShowing && s.BlindDeadline.Active(now)
}

// Triangulating reports whether a stronghold triangulation is surfacing.
func (s Snapshot) Triangulating() bool {
	return s.Stronghold.ResultType == signal.ResultTriangulation
}
