package compositor

import (
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
)

// Built-in font names accepted in font_name.
var builtinFonts = map[string][]byte{
	"go":     goregular.TTF,
	"gomono": gomono.TTF,
	"gobold": gobold.TTF,
}

type faceKey struct {
	path string
	name string
	size float64
}

// face returns a cached face for the configured font. The chain is the
// file at path, then the named built-in font, then the regular Go font,
// then a fixed bitmap face. It never fails.
func (c *Compositor) face(path, name string, size float64) font.Face {
	key := faceKey{path: path, name: strings.ToLower(name), size: size}
	if f, ok := c.faces[key]; ok {
		return f
	}
	f := c.loadFace(key)
	c.faces[key] = f
	return f
}

func (c *Compositor) loadFace(key faceKey) font.Face {
	if key.path != "" {
		f, err := faceFromFile(key.path, key.size)
		if err == nil {
			return f
		}
		c.log.Warn("font file unusable, falling back", "path", key.path, "error", err)
	}
	if data, ok := builtinFonts[key.name]; ok {
		if f, err := faceFromTTF(data, key.size); err == nil {
			return f
		}
	} else {
		c.log.Warn("unknown font name, falling back", "font_name", key.name)
	}
	if f, err := faceFromTTF(goregular.TTF, key.size); err == nil {
		return f
	}
	return basicfont.Face7x13
}

func faceFromFile(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeAssetMissing, "read font")
	}
	return faceFromTTF(data, size)
}

func faceFromTTF(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeAssetMissing, "parse font")
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     FontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeAssetMissing, "create font face")
	}
	return face, nil
}
