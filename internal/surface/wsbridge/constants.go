// Package wsbridge presents the overlay to browser sources over WebSocket.
package wsbridge

import "time"

// Bridge constants
const (
	// Per-client write deadline for one broadcast message
	WriteTimeout = 2 * time.Second

	// Client message rate limiting (sliding window)
	RateLimitMessages = 30
	RateLimitWindow   = time.Second

	// Graceful shutdown budget for the HTTP listener
	ShutdownTimeout = 3 * time.Second
)
