package compositor

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/GriffinCanCode/nbtrackr/internal/signal"
)

var evaluationLabels = map[signal.Evaluation]string{
	signal.EvalExcellent:    "excellent",
	signal.EvalHighrollGood: "good for highroll",
	signal.EvalHighrollOkay: "okay for highroll",
	signal.EvalBadInRing:    "bad, but in ring",
	signal.EvalBad:          "bad",
	signal.EvalNotInRing:    "not in ring",
}

// blindLines renders the three-line blind travel summary.
func blindLines(r signal.BlindResult, text color.RGBA) []Line {
	pct := round1(r.HighrollProbability * 100)
	heading := int(math.Round(mgl64.RadToDeg(r.ImproveDirection)))
	distance := int(math.Round(r.ImproveDistance))

	return []Line{
		{
			{Text: fmt.Sprintf("Blind coords (%d, %d) are ", r.XInNether, r.ZInNether), Color: text},
			{Text: evaluationLabels[r.Evaluation], Color: EvaluationColor(r.Evaluation)},
		},
		{
			{Text: formatNumber(pct) + "%", Color: CertaintyColor(pct)},
			{Text: " chance of " + strconv.Itoa(r.HighrollThreshold) + " block highroll", Color: text},
		},
		{
			{Text: fmt.Sprintf("Head %d°, %d blocks away, for better coords.", heading, distance), Color: text},
		},
	}
}
