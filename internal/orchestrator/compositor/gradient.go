package compositor

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/GriffinCanCode/nbtrackr/internal/signal"
)

var (
	gradientGreen  = colorful.Color{R: 0, G: 1, B: 0}
	gradientYellow = colorful.Color{R: 1, G: 1, B: 0}
	gradientRed    = colorful.Color{R: 1, G: 0, B: 0}
)

// Fixed palette entries.
var (
	WarningColor = color.RGBA{R: 255, G: 170, B: 0, A: 255}
	ErrorColor   = color.RGBA{R: 255, G: 85, B: 85, A: 255}
)

var evaluationColors = map[signal.Evaluation]color.RGBA{
	signal.EvalExcellent:    {R: 0x4C, G: 0xFF, B: 0x4C, A: 255},
	signal.EvalHighrollGood: {R: 0xA6, G: 0xFF, B: 0x4C, A: 255},
	signal.EvalHighrollOkay: {R: 0xFF, G: 0xFF, B: 0x4C, A: 255},
	signal.EvalBadInRing:    {R: 0xFF, G: 0xA6, B: 0x4C, A: 255},
	signal.EvalBad:          {R: 0xFF, G: 0x4C, B: 0x4C, A: 255},
	signal.EvalNotInRing:    {R: 0xC0, G: 0x30, B: 0x30, A: 255},
}

// GradientColor maps 0..180 degrees onto green, yellow and red. Values
// outside the range are clamped.
func GradientColor(angle float64) color.RGBA {
	switch {
	case angle <= 0:
		angle = 0
	case angle >= 180:
		angle = 180
	}
	var c colorful.Color
	if angle <= 90 {
		c = gradientGreen.BlendRgb(gradientYellow, angle/90)
	} else {
		c = gradientYellow.BlendRgb(gradientRed, (angle-90)/90)
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// CertaintyColor colours a percentage: 0 red, 50 yellow, 100 green.
func CertaintyColor(pct float64) color.RGBA {
	return GradientColor((100 - pct) * 1.8)
}

// EvaluationColor returns the colour for a blind evaluation.
func EvaluationColor(e signal.Evaluation) color.RGBA {
	if c, ok := evaluationColors[e]; ok {
		return c
	}
	return ErrorColor
}

// ParseColor parses #RRGGBB or #RRGGBBAA, returning fallback on error.
func ParseColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimSpace(s)
	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return fallback
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return fallback
	}
	r, g, b := c.RGB255()
	return premultiply(color.NRGBA{R: r, G: g, B: b, A: alpha})
}

func premultiply(c color.NRGBA) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
