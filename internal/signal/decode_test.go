package signal

import (
	"testing"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
)

func TestDecodeBoat(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		state BoatState
		angle float64
	}{
		{"valid", `{"boatState":"VALID","boatAngle":12.5}`, BoatValid, 12.5},
		{"error", `{"boatState":"ERROR"}`, BoatError, 0},
		{"missing state", `{}`, BoatUnknown, 0},
		{"unrecognised state", `{"boatState":"PURPLE"}`, BoatUnknown, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := DecodeBoat([]byte(tt.body))
			if err != nil {
				t.Fatalf("DecodeBoat() error = %v", err)
			}
			if b.State != tt.state || b.Angle != tt.angle {
				t.Errorf("DecodeBoat() = %+v, want state %s angle %v", b, tt.state, tt.angle)
			}
		})
	}
}

func TestDecodeBoatMalformed(t *testing.T) {
	b, err := DecodeBoat([]byte(`{"boatState":`))
	if !apperrors.IsCode(err, apperrors.CodeUpstreamMalformed) {
		t.Fatalf("error = %v, want UPSTREAM_MALFORMED", err)
	}
	if b != DefaultBoat() {
		t.Errorf("malformed body should yield default, got %+v", b)
	}
}

func TestDecodeStronghold(t *testing.T) {
	body := `{
		"resultType": "TRIANGULATION",
		"predictions": [
			{"chunkX": 10, "chunkZ": -5, "certainty": 0.82, "overworldDistance": 120.4},
			{"chunkX": 11, "certainty": 0.1}
		],
		"playerPosition": {"xInOverworld": 4, "zInOverworld": -100, "horizontalAngle": -45.5, "isInNether": true}
	}`
	s, err := DecodeStronghold([]byte(body))
	if err != nil {
		t.Fatalf("DecodeStronghold() error = %v", err)
	}
	if s.ResultType != ResultTriangulation {
		t.Errorf("ResultType = %s", s.ResultType)
	}
	if len(s.Predictions) != 2 {
		t.Fatalf("predictions = %d, want 2", len(s.Predictions))
	}
	if p := s.Predictions[0]; !p.Complete || p.ChunkX != 10 || p.ChunkZ != -5 || p.Certainty != 0.82 {
		t.Errorf("first prediction = %+v", p)
	}
	if s.Predictions[1].Complete {
		t.Error("prediction missing fields must not be complete")
	}
	if !s.Player.HasAngle || s.Player.HorizontalAngle != -45.5 || !s.Player.IsInNether || s.Player.Z != -100 {
		t.Errorf("player = %+v", s.Player)
	}
}

func TestDecodeStrongholdDefaults(t *testing.T) {
	s, err := DecodeStronghold([]byte(`{}`))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if s.ResultType != ResultNone || len(s.Predictions) != 0 || s.Player.HasAngle {
		t.Errorf("empty body = %+v, want defaults", s)
	}
}

func TestDecodeBlind(t *testing.T) {
	body := `{"isBlindModeEnabled": true, "blindResult": {
		"evaluation": "HIGHROLL_GOOD", "xInNether": 120, "zInNether": -35,
		"highrollProbability": 0.123, "highrollThreshold": 400,
		"improveDirection": 1.5707963, "improveDistance": 42.0}}`
	b, err := DecodeBlind([]byte(body))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !b.Enabled || b.Result == nil {
		t.Fatalf("blind = %+v", b)
	}
	if b.Result.Evaluation != EvalHighrollGood || b.Result.XInNether != 120 || b.Result.HighrollThreshold != 400 {
		t.Errorf("result = %+v", *b.Result)
	}
}

func TestDecodeBlindDropsUnknownEvaluation(t *testing.T) {
	b, err := DecodeBlind([]byte(`{"isBlindModeEnabled": true, "blindResult": {"evaluation": "MEH"}}`))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if b.Result != nil {
		t.Error("unknown evaluation should drop the result")
	}
}

func TestBlindEqual(t *testing.T) {
	r := &BlindResult{Evaluation: EvalBad, XInNether: 1}
	same := &BlindResult{Evaluation: EvalBad, XInNether: 1}

	if !(Blind{Enabled: true, Result: r}).Equal(Blind{Enabled: true, Result: same}) {
		t.Error("equal values in distinct pointers should compare equal")
	}
	if (Blind{Enabled: true, Result: r}).Equal(Blind{Enabled: true}) {
		t.Error("nil vs non-nil result should differ")
	}
}

func TestResultTypeQuiet(t *testing.T) {
	if !ResultNone.Quiet() || !ResultBlind.Quiet() {
		t.Error("NONE and BLIND are quiet")
	}
	if ResultTriangulation.Quiet() || ResultFailed.Quiet() {
		t.Error("TRIANGULATION and FAILED are not quiet")
	}
}
