// Package signal defines the three live signals published by the
// localization tool and their JSON wire decoding.
package signal

// BoatState is the measuring device's confidence phase.
type BoatState string

const (
	BoatMeasuring BoatState = "MEASURING"
	BoatError     BoatState = "ERROR"
	BoatValid     BoatState = "VALID"
	BoatUnknown   BoatState = "UNKNOWN"
)

// ResultType describes what the stronghold endpoint currently holds.
type ResultType string

const (
	ResultNone          ResultType = "NONE"
	ResultBlind         ResultType = "BLIND"
	ResultTriangulation ResultType = "TRIANGULATION"
	ResultFailed        ResultType = "FAILED"
)

// Quiet reports whether the result leaves room for boat and blind cues.
func (r ResultType) Quiet() bool {
	return r == ResultNone || r == ResultBlind
}

// Evaluation is the qualitative rating of a blind travel result.
type Evaluation string

const (
	EvalExcellent    Evaluation = "EXCELLENT"
	EvalHighrollGood Evaluation = "HIGHROLL_GOOD"
	EvalHighrollOkay Evaluation = "HIGHROLL_OKAY"
	EvalBadInRing    Evaluation = "BAD_BUT_IN_RING"
	EvalBad          Evaluation = "BAD"
	EvalNotInRing    Evaluation = "NOT_IN_RING"
)

// Known reports whether e is one of the published evaluations.
func (e Evaluation) Known() bool {
	switch e {
	case EvalExcellent, EvalHighrollGood, EvalHighrollOkay, EvalBadInRing, EvalBad, EvalNotInRing:
		return true
	}
	return false
}

// Boat is the boat endpoint signal.
type Boat struct {
	State BoatState `json:"state"`
	Angle float64   `json:"angle"`
}

// Prediction is one ranked stronghold candidate. Complete is false when the
// upstream omitted any of the four fields.
type Prediction struct {
	ChunkX            int     `json:"chunkX"`
	ChunkZ            int     `json:"chunkZ"`
	Certainty         float64 `json:"certainty"`
	OverworldDistance float64 `json:"overworldDistance"`
	Complete          bool    `json:"complete"`
}

// Player is the player position attached to a stronghold result.
type Player struct {
	X               float64 `json:"x"`
	Z               float64 `json:"z"`
	HorizontalAngle float64 `json:"horizontalAngle"`
	HasAngle        bool    `json:"hasAngle"`
	IsInNether      bool    `json:"isInNether"`
}

// Stronghold is the stronghold endpoint signal.
type Stronghold struct {
	ResultType  ResultType   `json:"resultType"`
	Predictions []Prediction `json:"predictions"`
	Player      Player       `json:"player"`
}

// BlindResult is an evaluated blind travel position.
type BlindResult struct {
	Evaluation          Evaluation `json:"evaluation"`
	XInNether           int        `json:"xInNether"`
	ZInNether           int        `json:"zInNether"`
	HighrollProbability float64    `json:"highrollProbability"`
	HighrollThreshold   int        `json:"highrollThreshold"`
	ImproveDirection    float64    `json:"improveDirection"` // radians
	ImproveDistance     float64    `json:"improveDistance"`
}

// Blind is the blind endpoint signal.
type Blind struct {
	Enabled bool         `json:"enabled"`
	Result  *BlindResult `json:"result,omitempty"`
}

// DefaultBoat is substituted when the boat endpoint cannot be read.
func DefaultBoat() Boat { return Boat{State: BoatUnknown} }

// DefaultStronghold is substituted when the stronghold endpoint cannot be read.
func DefaultStronghold() Stronghold { return Stronghold{ResultType: ResultNone} }

// DefaultBlind is substituted when the blind endpoint cannot be read.
func DefaultBlind() Blind { return Blind{} }

// Equal reports value equality, including the optional result.
func (b Blind) Equal(o Blind) bool {
	if b.Enabled != o.Enabled {
		return false
	}
	if b.Result == nil || o.Result == nil {
		return b.Result == nil && o.Result == nil
	}
	return *b.Result == *o.Result
}

// Poll is one atomically-applied set of the three signals.
type Poll struct {
	Boat       Boat
	Stronghold Stronghold
	Blind      Blind
}

// DefaultPoll is the state reported while the upstream is unreachable.
func DefaultPoll() Poll {
	return Poll{Boat: DefaultBoat(), Stronghold: DefaultStronghold(), Blind: DefaultBlind()}
}
