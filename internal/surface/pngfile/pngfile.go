// Package pngfile writes the overlay to an image file so other tools can
// pin it.
package pngfile

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/compositor"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// Surface keeps path holding the current overlay. Hiding writes a fully
// transparent 1x1 image so readers that poll the file see it vanish.
type Surface struct {
	path string

	mu   sync.Mutex
	x, y int
}

// New creates a file surface writing to path.
func New(path string) *Surface {
	return &Surface{path: path}
}

// Path returns the output file.
func (s *Surface) Path() string { return s.path }

// Show writes the artifact.
func (s *Surface) Show(ctx context.Context, a *compositor.Artifact) error {
	if a == nil || a.Image == nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "artifact has no image")
	}
	if err := s.write(a.Image); err != nil {
		return err
	}
	trace.Logger(ctx).Debug("overlay written", "path", s.path, "mode", a.Mode)
	return nil
}

// Hide replaces the file with a transparent pixel.
func (s *Surface) Hide(context.Context) error {
	return s.write(image.NewRGBA(image.Rect(0, 0, 1, 1)))
}

// PlaceAt records the position. A file has no placement of its own.
func (s *Surface) PlaceAt(_ context.Context, x, y int) error {
	s.mu.Lock()
	s.x, s.y = x, y
	s.mu.Unlock()
	return nil
}

// Position returns the last recorded placement.
func (s *Surface) Position() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

// write replaces the file atomically so readers never see a partial PNG.
func (s *Surface) write(img image.Image) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "create output dir")
	}
	tmp, err := os.CreateTemp(dir, ".overlay-*.png")
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return apperrors.Wrap(err, apperrors.CodeInternal, "encode overlay")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "flush overlay")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "replace overlay").
			WithMetadata("path", s.path)
	}
	return nil
}
