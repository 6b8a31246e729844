// Package compositor turns a display snapshot and the render configuration
// into the overlay bitmap.
package compositor

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	_ "image/png" // icon and pinned image decoder
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/GriffinCanCode/nbtrackr/internal/customize"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/display"
	"github.com/GriffinCanCode/nbtrackr/internal/signal"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// Mode is the single visual selected for a snapshot.
type Mode string

const (
	ModeHidden    Mode = "hidden"
	ModeError     Mode = "error"
	ModeBlind     Mode = "blind"
	ModeBoatValid Mode = "boat_valid"
	ModeBoatError Mode = "boat_error"
	ModeTable     Mode = "table"
	ModePinned    Mode = "pinned"
)

// Token is a run of text drawn in one colour.
type Token struct {
	Text  string
	Color color.RGBA
}

// Line is a row of tokens drawn left to right.
type Line []Token

// Artifact is one rendered overlay. It is never modified after Compose
// returns.
type Artifact struct {
	Mode   Mode
	Image  *image.RGBA
	Width  int
	Height int
	Lines  []Line
}

// Text returns the artifact's lines as plain text.
func (a *Artifact) Text() string {
	return strings.Join(lo.Map(a.Lines, func(l Line, _ int) string {
		var b strings.Builder
		for _, t := range l {
			b.WriteString(t.Text)
		}
		return b.String()
	}), "\n")
}

// Compositor renders artifacts. Font faces and icons are cached across
// calls; a Compositor is safe for concurrent use.
type Compositor struct {
	mu    sync.Mutex
	faces map[faceKey]font.Face
	icons map[iconKey]*image.RGBA
	log   *slog.Logger
}

// New creates a compositor.
func New() *Compositor {
	return &Compositor{
		faces: make(map[faceKey]font.Face),
		icons: make(map[iconKey]*image.RGBA),
		log:   slog.Default().With("component", "compositor"),
	}
}

// Select resolves which visual the snapshot calls for, in fixed priority:
// error message, blind info, boat icon, then the measurement table.
func Select(s display.Snapshot, cfg customize.RenderConfig, now time.Time) Mode {
	rt := s.Stronghold.ResultType

	if cfg.ShowErrorMessage && rt == signal.ResultFailed {
		return ModeError
	}
	if cfg.ShowBlindInfo && s.BlindVisible(now) && s.Blind.Result != nil {
		return ModeBlind
	}
	if cfg.ShowBoatIcon && rt != signal.ResultTriangulation && !s.Stronghold.Player.IsInNether &&
		s.LastShown != display.KindNone {
		switch {
		case s.LastShown == display.KindValid && s.Boat.State == signal.BoatValid && s.Boat.Angle == 0:
			return ModeHidden
		case !s.BoatVisible(now):
			return ModeHidden
		case s.LastShown == display.KindError:
			return ModeBoatError
		default:
			return ModeBoatValid
		}
	}
	if !cfg.UseCustomPinnedImage {
		return ModePinned
	}
	if len(tableRows(s.Stronghold, cfg, color.RGBA{})) == 0 {
		return ModeHidden
	}
	return ModeTable
}

// Compose renders the snapshot. A nil artifact means the overlay should be
// hidden. Errors are informational: the artifact is still nil or usable.
func (c *Compositor) Compose(ctx context.Context, s display.Snapshot, cfg customize.RenderConfig, now time.Time) (*Artifact, error) {
	ctx, span := trace.StartSpan(ctx, "compose")
	defer span.End()

	mode := Select(s, cfg, now)
	span.SetAttr("mode", string(mode))

	text := ParseColor(cfg.TextColor, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	c.mu.Lock()
	defer c.mu.Unlock()

	switch mode {
	case ModeError:
		return c.renderText(mode, []Line{{{Text: ErrorMessage, Color: ErrorColor}}}, cfg), nil

	case ModeBlind:
		return c.renderText(mode, blindLines(*s.Blind.Result, text), cfg), nil

	case ModeBoatValid, ModeBoatError:
		kind := display.KindValid
		if mode == ModeBoatError {
			kind = display.KindError
		}
		img := c.icon(cfg.BoatIconDir, kind)
		return &Artifact{Mode: mode, Image: img, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil

	case ModePinned:
		img, err := loadPinned(cfg.PinnedImagePath)
		if err != nil {
			trace.Logger(ctx).Debug("pinned image unusable", "path", cfg.PinnedImagePath, "error", err)
			return nil, err
		}
		if img == nil {
			return nil, nil
		}
		return &Artifact{Mode: mode, Image: img, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil

	case ModeTable:
		rows := tableRows(s.Stronghold, cfg, text)
		if len(rows) == 0 {
			return nil, nil
		}
		return c.renderText(mode, rows, cfg), nil
	}
	return nil, nil
}

// renderText lays tokens out with font metrics and crops the canvas to
// the union of glyph bounds plus padding.
func (c *Compositor) renderText(mode Mode, lines []Line, cfg customize.RenderConfig) *Artifact {
	face := c.face(cfg.FontPath, cfg.FontName, cfg.FontSize)
	metrics := face.Metrics()
	lineHeight := metrics.Height + fixed.I(LineSpacing)

	type placed struct {
		tok Token
		dot fixed.Point26_6
	}
	var (
		glyphs []placed
		union  fixed.Rectangle26_6
		empty  = true
	)
	for i, line := range lines {
		dot := fixed.Point26_6{X: 0, Y: metrics.Ascent + lineHeight*fixed.Int26_6(i)}
		for _, tok := range line {
			bounds, advance := font.BoundString(face, tok.Text)
			if strings.TrimSpace(tok.Text) != "" {
				bounds = bounds.Add(dot)
				if empty {
					union, empty = bounds, false
				} else {
					union = union.Union(bounds)
				}
			}
			glyphs = append(glyphs, placed{tok: tok, dot: dot})
			dot.X += advance
		}
	}
	if empty {
		return nil
	}

	minX, minY := union.Min.X.Floor(), union.Min.Y.Floor()
	w := union.Max.X.Ceil() - minX + 2*Padding
	h := union.Max.Y.Ceil() - minY + 2*Padding

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := ParseColor(cfg.BackgroundColor, color.RGBA{A: 0xD2})
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	shift := fixed.P(Padding-minX, Padding-minY)
	d := &font.Drawer{Dst: img, Face: face}
	for _, g := range glyphs {
		d.Src = image.NewUniform(g.tok.Color)
		d.Dot = g.dot.Add(shift)
		d.DrawString(g.tok.Text)
	}
	return &Artifact{Mode: mode, Image: img, Width: w, Height: h, Lines: lines}
}
