package compositor

import (
	"fmt"
	"image"
	"os"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
)

// PinnedStamp identifies the current content of the upstream pinned image
// by modification time and size, or "" when it is absent.
func PinnedStamp(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size())
}

// loadPinned decodes the upstream pinned image. A missing or fully
// transparent image yields nil.
func loadPinned(path string) (*image.RGBA, error) {
	if path == "" {
		return nil, nil
	}
	img, err := decodeImage(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeAssetMissing, "decode pinned image")
	}
	if !hasVisiblePixel(img) {
		return nil, nil
	}
	return img, nil
}

func hasVisiblePixel(img *image.RGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 3; i < len(row); i += 4 {
			if row[i] != 0 {
				return true
			}
		}
	}
	return false
}
