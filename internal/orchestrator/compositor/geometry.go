package compositor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/GriffinCanCode/nbtrackr/internal/signal"
)

// MaxTurnShade caps the turn magnitude fed into the colour gradient.
const MaxTurnShade = 170.0

// ChunkCenter returns the overworld block at the centre of a chunk.
func ChunkCenter(chunkX, chunkZ int) (x, z int) {
	return chunkX*16 + 4, chunkZ*16 + 4
}

// NetherCoords scales overworld block coordinates into the nether.
func NetherCoords(x, z int) (int, int) {
	return int(math.Round(float64(x) / 8)), int(math.Round(float64(z) / 8))
}

// Bearing is the heading from the player to a prediction.
type Bearing struct {
	Target float64 // signed, in (-180, 180]
	Turn   float64 // signed correction from the current heading, in [-180, 180)
}

// ComputeBearing returns the bearing from player to the predicted chunk
// centre. Headings follow the game's convention: 0 faces +z, 90 faces -x.
func ComputeBearing(p signal.Prediction, player signal.Player) Bearing {
	cx, cz := ChunkCenter(p.ChunkX, p.ChunkZ)
	target := mgl64.Vec2{float64(cx), float64(cz)}
	origin := mgl64.Vec2{player.X, player.Z}
	if player.IsInNether {
		target = target.Mul(1.0 / 8)
		origin = origin.Mul(1.0 / 8)
	}
	d := target.Sub(origin)

	heading := wrap360(mgl64.RadToDeg(math.Atan2(d.Y(), d.X())) + 270)
	return Bearing{
		Target: signed(heading),
		Turn:   wrap360(heading-player.HorizontalAngle+180) - 180,
	}
}

// Direction returns the arrow for a turn, empty when aligned.
func (b Bearing) Direction() string {
	switch {
	case b.Turn > 0:
		return "->"
	case b.Turn < 0:
		return "<-"
	}
	return ""
}

// Shade is the clamped turn magnitude used for colouring.
func (b Bearing) Shade() float64 {
	return math.Min(math.Abs(b.Turn), MaxTurnShade)
}

func wrap360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func signed(a float64) float64 {
	if a > 180 {
		return a - 360
	}
	return a
}
