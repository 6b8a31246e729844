package poller

import "time"

// Poll cadence defaults.
const (
	DefaultFastInterval = 150 * time.Millisecond
	DefaultIdleInterval = 500 * time.Millisecond
)
