package display

import (
	"math"
	"sync"
	"time"

	"github.com/GriffinCanCode/nbtrackr/internal/signal"
)

// Store owns the display state. All reads and writes go through its
// methods, each of which holds the lock only for the read-modify-write.
type Store struct {
	mu sync.Mutex

	poll signal.Poll

	lastShown    Kind
	showUntil    time.Time
	lastAngle    float64
	hasLastAngle bool

	blindDeadline Deadline
	blindShowing  bool
	blindArmed    bool
	blindKey      blindKey
}

// NewStore returns a store with every signal at its default.
func NewStore() *Store {
	return &Store{poll: signal.DefaultPoll()}
}

// Apply records one poll cycle and recomputes the hysteresis fields.
// hideAfter is the blind auto-hide duration; zero keeps a blind result up
// until it is disqualified.
func (s *Store) Apply(p signal.Poll, now time.Time, hideAfter time.Duration) Snapshot {
	if len(p.Stronghold.Predictions) > 0 {
		p.Stronghold.Predictions = append([]signal.Prediction(nil), p.Stronghold.Predictions...)
	}
	if p.Blind.Result != nil {
		r := *p.Blind.Result
		p.Blind.Result = &r
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.poll = p
	s.reconcileBoat(now)
	s.reconcileBlind(now, hideAfter)
	return s.snapshotLocked()
}

func (s *Store) reconcileBoat(now time.Time) {
	rt := s.poll.Stronghold.ResultType
	kind := kindOf(s.poll.Boat.State)
	if !rt.Quiet() || kind == KindNone {
		s.lastShown = KindNone
		s.showUntil = time.Time{}
		s.hasLastAngle = false
		s.lastAngle = 0
		return
	}

	player := s.poll.Stronghold.Player
	if kind != s.lastShown {
		s.lastShown = kind
		s.showUntil = now.Add(ShowWindow)
		s.hasLastAngle = kind == KindError && player.HasAngle
		s.lastAngle = 0
		if s.hasLastAngle {
			s.lastAngle = player.HorizontalAngle
		}
		return
	}

	if now.Before(s.showUntil) {
		return
	}

	// Expired. The kind is kept so an unchanged signal cannot re-enter via
	// the kind-change branch above.
	if kind == KindError && player.HasAngle &&
		(!s.hasLastAngle || math.Float64bits(player.HorizontalAngle) != math.Float64bits(s.lastAngle)) {
		s.showUntil = now.Add(ShowWindow)
		s.lastAngle = player.HorizontalAngle
		s.hasLastAngle = true
		return
	}
	s.showUntil = time.Time{}
}

func (s *Store) reconcileBlind(now time.Time, hideAfter time.Duration) {
	b := s.poll.Blind
	eligible := b.Enabled && b.Result != nil && b.Result.Evaluation.Known() &&
		s.poll.Stronghold.ResultType.Quiet()
	if !eligible {
		s.blindDeadline = Deadline{}
		s.blindShowing = false
		s.blindArmed = false
		s.blindKey = blindKey{}
		return
	}

	key := blindKey{eval: b.Result.Evaluation, x: b.Result.XInNether, z: b.Result.ZInNether}
	if !s.blindArmed || key != s.blindKey {
		s.blindArmed = true
		s.blindKey = key
		s.blindShowing = true
		if hideAfter > 0 {
			s.blindDeadline = At(now.Add(hideAfter))
		} else {
			s.blindDeadline = Never()
		}
		return
	}
	if s.blindShowing && !s.blindDeadline.Active(now) {
		s.blindShowing = false
	}
}

// ExpireBlind clears the blind result once its deadline has passed.
// expired is true only on the call that performed the transition. next is
// the time left on a finite deadline that is still running, zero otherwise.
func (s *Store) ExpireBlind(now time.Time) (expired bool, next time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.blindShowing {
		return false, 0
	}
	if !s.blindDeadline.Active(now) {
		s.blindShowing = false
		return true, 0
	}
	return false, s.blindDeadline.Remaining(now)
}

// Snapshot returns a consistent copy of the state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Reset returns the store to its initial state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poll = signal.DefaultPoll()
	s.lastShown = KindNone
	s.showUntil = time.Time{}
	s.lastAngle, s.hasLastAngle = 0, false
	s.blindDeadline = Deadline{}
	s.blindShowing, s.blindArmed = false, false
	s.blindKey = blindKey{}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Boat:          s.poll.Boat,
		Stronghold:    s.poll.Stronghold,
		Blind:         s.poll.Blind,
		LastShown:     s.lastShown,
		ShowUntil:     s.showUntil,
		LastAngle:     s.lastAngle,
		HasLastAngle:  s.hasLastAngle,
		BlindDeadline: s.blindDeadline,
		BlindShowing:  s.blindShowing,
	}
}
