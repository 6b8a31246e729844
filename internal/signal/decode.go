package signal

import (
	"encoding/json"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
)

// Wire shapes. Pointers distinguish an absent field from a zero value.

type boatWire struct {
	BoatState *string  `json:"boatState"`
	BoatAngle *float64 `json:"boatAngle"`
}

type predictionWire struct {
	ChunkX            *int     `json:"chunkX"`
	ChunkZ            *int     `json:"chunkZ"`
	Certainty         *float64 `json:"certainty"`
	OverworldDistance *float64 `json:"overworldDistance"`
}

type playerWire struct {
	XInOverworld    *float64 `json:"xInOverworld"`
	ZInOverworld    *float64 `json:"zInOverworld"`
	HorizontalAngle *float64 `json:"horizontalAngle"`
	IsInNether      *bool    `json:"isInNether"`
}

type strongholdWire struct {
	ResultType     *string          `json:"resultType"`
	Predictions    []predictionWire `json:"predictions"`
	PlayerPosition *playerWire      `json:"playerPosition"`
}

type blindResultWire struct {
	Evaluation          *string  `json:"evaluation"`
	XInNether           *float64 `json:"xInNether"`
	ZInNether           *float64 `json:"zInNether"`
	HighrollProbability *float64 `json:"highrollProbability"`
	HighrollThreshold   *float64 `json:"highrollThreshold"`
	ImproveDirection    *float64 `json:"improveDirection"`
	ImproveDistance     *float64 `json:"improveDistance"`
}

type blindWire struct {
	IsBlindModeEnabled *bool            `json:"isBlindModeEnabled"`
	BlindResult        *blindResultWire `json:"blindResult"`
}

func malformed(endpoint string, err error) error {
	return apperrors.Wrap(err, apperrors.CodeUpstreamMalformed, "decode "+endpoint).
		WithMetadata("endpoint", endpoint)
}

// DecodeBoat parses a boat endpoint body. Unknown or absent states become
// UNKNOWN.
func DecodeBoat(data []byte) (Boat, error) {
	var w boatWire
	if err := json.Unmarshal(data, &w); err != nil {
		return DefaultBoat(), malformed("boat", err)
	}
	b := DefaultBoat()
	if w.BoatState != nil {
		switch s := BoatState(*w.BoatState); s {
		case BoatMeasuring, BoatError, BoatValid:
			b.State = s
		}
	}
	if w.BoatAngle != nil {
		b.Angle = *w.BoatAngle
	}
	return b, nil
}

// DecodeStronghold parses a stronghold endpoint body.
func DecodeStronghold(data []byte) (Stronghold, error) {
	var w strongholdWire
	if err := json.Unmarshal(data, &w); err != nil {
		return DefaultStronghold(), malformed("stronghold", err)
	}
	s := DefaultStronghold()
	if w.ResultType != nil {
		switch r := ResultType(*w.ResultType); r {
		case ResultNone, ResultBlind, ResultTriangulation, ResultFailed:
			s.ResultType = r
		}
	}
	if len(w.Predictions) > 0 {
		s.Predictions = make([]Prediction, 0, len(w.Predictions))
	}
	for _, p := range w.Predictions {
		var out Prediction
		out.Complete = p.ChunkX != nil && p.ChunkZ != nil && p.Certainty != nil && p.OverworldDistance != nil
		if p.ChunkX != nil {
			out.ChunkX = *p.ChunkX
		}
		if p.ChunkZ != nil {
			out.ChunkZ = *p.ChunkZ
		}
		if p.Certainty != nil {
			out.Certainty = *p.Certainty
		}
		if p.OverworldDistance != nil {
			out.OverworldDistance = *p.OverworldDistance
		}
		s.Predictions = append(s.Predictions, out)
	}
	if pp := w.PlayerPosition; pp != nil {
		if pp.XInOverworld != nil {
			s.Player.X = *pp.XInOverworld
		}
		if pp.ZInOverworld != nil {
			s.Player.Z = *pp.ZInOverworld
		}
		if pp.HorizontalAngle != nil {
			s.Player.HorizontalAngle = *pp.HorizontalAngle
			s.Player.HasAngle = true
		}
		if pp.IsInNether != nil {
			s.Player.IsInNether = *pp.IsInNether
		}
	}
	return s, nil
}

// DecodeBlind parses a blind endpoint body. A result without a recognised
// evaluation is dropped.
func DecodeBlind(data []byte) (Blind, error) {
	var w blindWire
	if err := json.Unmarshal(data, &w); err != nil {
		return DefaultBlind(), malformed("blind", err)
	}
	b := DefaultBlind()
	if w.IsBlindModeEnabled != nil {
		b.Enabled = *w.IsBlindModeEnabled
	}
	r := w.BlindResult
	if r == nil || r.Evaluation == nil || !Evaluation(*r.Evaluation).Known() {
		return b, nil
	}
	b.Result = &BlindResult{
		Evaluation:          Evaluation(*r.Evaluation),
		XInNether:           intOr(r.XInNether),
		ZInNether:           intOr(r.ZInNether),
		HighrollProbability: floatOr(r.HighrollProbability),
		HighrollThreshold:   intOr(r.HighrollThreshold),
		ImproveDirection:    floatOr(r.ImproveDirection),
		ImproveDistance:     floatOr(r.ImproveDistance),
	}
	return b, nil
}

func floatOr(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// intOr accepts integral values sent as JSON floats ("12.0").
func intOr(p *float64) int {
	if p == nil {
		return 0
	}
	return int(*p)
}
