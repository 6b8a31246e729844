package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/display"
)

var (
	hullValid = color.RGBA{R: 0x3C, G: 0xC8, B: 0x3C, A: 255}
	hullError = color.RGBA{R: 0xDC, G: 0x3C, B: 0x3C, A: 255}
	hullEdge  = color.RGBA{R: 0x14, G: 0x14, B: 0x14, A: 255}
)

type iconKey struct {
	dir  string
	kind display.Kind
}

// icon returns the boat icon for kind, from dir when a decodable file is
// present, otherwise a drawn hull.
func (c *Compositor) icon(dir string, kind display.Kind) *image.RGBA {
	key := iconKey{dir: dir, kind: kind}
	if img, ok := c.icons[key]; ok {
		return img
	}
	img := c.loadIcon(dir, kind)
	c.icons[key] = img
	return img
}

func (c *Compositor) loadIcon(dir string, kind display.Kind) *image.RGBA {
	if dir != "" {
		name := ValidIconFile
		if kind == display.KindError {
			name = ErrorIconFile
		}
		path := filepath.Join(dir, name)
		img, err := decodeImage(path)
		if err == nil {
			return img
		}
		c.log.Warn("boat icon unusable, drawing built-in", "path", path, "error", err)
	}
	fill := hullValid
	if kind == display.KindError {
		fill = hullError
	}
	return drawHull(fill)
}

// drawHull draws a small boat: a trapezoid hull under a thin mast.
func drawHull(fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, IconWidth, IconHeight))
	top, bottom := IconHeight/2, IconHeight-4
	for y := top; y <= bottom; y++ {
		inset := (y - top) * 6 / (bottom - top + 1)
		x0, x1 := 2+inset, IconWidth-3-inset
		for x := x0; x <= x1; x++ {
			c := fill
			if y == top || y == bottom || x == x0 || x == x1 {
				c = hullEdge
			}
			img.SetRGBA(x, y, c)
		}
	}
	mast := IconWidth / 2
	for y := 3; y < top; y++ {
		img.SetRGBA(mast, y, hullEdge)
	}
	for y := 5; y < top-2; y++ {
		for x := mast + 1; x <= mast+(y-3); x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	return img
}

func decodeImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}
