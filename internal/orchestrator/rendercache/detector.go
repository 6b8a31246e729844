// Package rendercache decides whether a composed overlay needs to be
// delivered again.
package rendercache

import (
	"encoding/json"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/GriffinCanCode/nbtrackr/internal/customize"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/compositor"
	"github.com/GriffinCanCode/nbtrackr/internal/signal"
)

// Decision is the outcome of a change check.
type Decision uint8

const (
	Skip Decision = iota
	Render
)

func (d Decision) String() string {
	if d == Skip {
		return "skip"
	}
	return "render"
}

// Input is everything a rendered artifact depends on.
type Input struct {
	Config     customize.RenderConfig `json:"config"`
	Boat       signal.Boat            `json:"boat"`
	Stronghold signal.Stronghold      `json:"stronghold"`
	Blind      signal.Blind           `json:"blind"`
	Mode       compositor.Mode        `json:"mode"`
	// Pinned identifies the upstream pinned image content in pinned mode.
	Pinned string `json:"pinned,omitempty"`
}

// Fingerprint hashes the canonical JSON encoding of in. Map keys are
// emitted sorted, so equal inputs always hash equal.
func Fingerprint(in Input) uint64 {
	data, err := json.Marshal(in)
	if err != nil {
		// Only NaN or Inf floats fail to encode; never match them.
		return 0
	}
	return xxh3.Hash(data)
}

// Detector remembers the last committed fingerprint.
type Detector struct {
	mu    sync.Mutex
	last  uint64
	has   bool
	empty bool // the last commit produced nothing to show
}

// New creates an empty detector.
func New() *Detector {
	return &Detector{}
}

// Decide returns Skip only when fp matches the last commit and the surface
// still shows it, or the commit rendered to nothing.
func (d *Detector) Decide(fp uint64, visible bool) Decision {
	d.mu.Lock()
	defer d.mu.Unlock()
	if fp != 0 && d.has && d.last == fp && (visible || d.empty) {
		return Skip
	}
	return Render
}

// Commit records fp as delivered.
func (d *Detector) Commit(fp uint64) {
	d.mu.Lock()
	d.last, d.has, d.empty = fp, true, false
	d.mu.Unlock()
}

// CommitEmpty records that fp composed to nothing, so it is not composed
// again while the surface stays hidden.
func (d *Detector) CommitEmpty(fp uint64) {
	d.mu.Lock()
	d.last, d.has, d.empty = fp, true, true
	d.mu.Unlock()
}

// Invalidate forgets the last render so the next Decide renders.
func (d *Detector) Invalidate() {
	d.mu.Lock()
	d.last, d.has, d.empty = 0, false, false
	d.mu.Unlock()
}
