package compositor

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/samber/lo"

	"github.com/GriffinCanCode/nbtrackr/internal/customize"
	"github.com/GriffinCanCode/nbtrackr/internal/signal"
)

// tableRows builds one line per complete prediction, up to the configured
// count, with fields in configured order. Rows with no enabled field are
// dropped.
func tableRows(sh signal.Stronghold, cfg customize.RenderConfig, text color.RGBA) []Line {
	preds := lo.Filter(sh.Predictions, func(p signal.Prediction, _ int) bool { return p.Complete })
	if len(preds) > cfg.ShownMeasurements {
		preds = preds[:cfg.ShownMeasurements]
	}

	layout := cfg.Layout()
	rows := make([]Line, 0, len(preds))
	for _, p := range preds {
		var row Line
		for el := layout.Front(); el != nil; el = el.Next() {
			if !el.Value {
				continue
			}
			tokens := fieldTokens(el.Key, p, sh.Player, cfg, text)
			if len(tokens) == 0 {
				continue
			}
			if len(row) > 0 {
				row = append(row, Token{Text: TokenGap, Color: text})
			}
			row = append(row, tokens...)
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func fieldTokens(field string, p signal.Prediction, player signal.Player, cfg customize.RenderConfig, text color.RGBA) []Token {
	switch field {
	case customize.FieldDistance:
		d := p.OverworldDistance
		shown := math.Round(d)
		if player.IsInNether {
			shown = math.Round(d / 8)
		}
		c := text
		if !player.IsInNether && d <= WarningDistance {
			c = WarningColor
		}
		return []Token{{Text: formatNumber(shown), Color: c}}

	case customize.FieldCertainty:
		pct := round1(p.Certainty * 100)
		return []Token{{Text: formatNumber(pct) + "%", Color: CertaintyColor(pct)}}

	case customize.FieldAngle:
		b := ComputeBearing(p, player)
		tokens := []Token{{Text: formatNumber(roundBearing(b.Target)), Color: text}}
		if cfg.ShowAngleDirection && player.HasAngle {
			turn := round1(math.Abs(b.Turn))
			label := formatNumber(turn)
			if dir := b.Direction(); dir != "" && turn != 0 {
				label = dir + " " + label
			}
			tokens = append(tokens,
				Token{Text: " ", Color: text},
				Token{Text: label, Color: GradientColor(b.Shade())})
		}
		return tokens

	case customize.FieldOverworldCoords:
		if cfg.ShowCoordsBasedOnDimension && player.IsInNether {
			return nil
		}
		x, z := ChunkCenter(p.ChunkX, p.ChunkZ)
		return []Token{{Text: formatCoords(x, z), Color: text}}

	case customize.FieldNetherCoords:
		if cfg.ShowCoordsBasedOnDimension && !player.IsInNether {
			return nil
		}
		x, z := NetherCoords(ChunkCenter(p.ChunkX, p.ChunkZ))
		return []Token{{Text: formatCoords(x, z), Color: text}}
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// roundBearing rounds a bearing to one decimal and keeps it in (-180, 180].
func roundBearing(a float64) float64 {
	if r := round1(a); r > -180 {
		return r
	}
	return 180
}

// formatNumber prints v with the fewest digits needed, never as "-0".
func formatNumber(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCoords(x, z int) string {
	return fmt.Sprintf("(%d, %d)", x, z)
}
