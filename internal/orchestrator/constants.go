// Package orchestrator wires the overlay engine's long-running tasks.
package orchestrator

import "time"

// Engine constants
const (
	// Render trigger cadence when the process config does not set one
	DefaultRenderInterval = 50 * time.Millisecond

	// Budget for persisting a dragged position
	PositionSaveTimeout = 2 * time.Second
)
