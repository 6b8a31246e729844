package ninjabrain

import "time"

// Endpoint paths relative to the API base URL.
const (
	BoatPath       = "/boat"
	StrongholdPath = "/stronghold"
	BlindPath      = "/blind"
)

const (
	// MaxTimeout bounds every fetch; there is no retry beyond it.
	MaxTimeout = time.Second

	// MaxBodyBytes caps a response body.
	MaxBodyBytes = 1 << 20
)
