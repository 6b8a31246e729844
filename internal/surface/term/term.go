// Package term draws the overlay into a terminal with tcell.
package term

import (
	"context"
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/compositor"
)

// MaxImageColumns bounds the width of image-only artifacts drawn with half
// blocks.
const MaxImageColumns = 48

// Surface renders artifacts as coloured text cells. Image-only artifacts
// (boat icons, pinned images) are drawn two pixel rows per cell.
type Surface struct {
	screen tcell.Screen

	mu      sync.Mutex
	x, y    int
	current *compositor.Artifact
}

// Open initialises the controlling terminal.
func Open() (*Surface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "open terminal")
	}
	if err := screen.Init(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "init terminal")
	}
	return New(screen), nil
}

// New wraps an initialised screen.
func New(screen tcell.Screen) *Surface {
	screen.Clear()
	return &Surface{screen: screen}
}

// Close restores the terminal.
func (s *Surface) Close() {
	s.screen.Fini()
}

// Show draws the artifact at the current origin.
func (s *Surface) Show(_ context.Context, a *compositor.Artifact) error {
	if a == nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "nil artifact")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = a
	s.redraw()
	return nil
}

// Hide clears the terminal.
func (s *Surface) Hide(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.redraw()
	return nil
}

// PlaceAt moves the origin to cell (x, y), clamped to the screen.
func (s *Surface) PlaceAt(_ context.Context, x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y = s.clamp(x, y)
	s.redraw()
	return nil
}

// Origin returns the current top-left cell.
func (s *Surface) Origin() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

// Nudge shifts the origin by (dx, dy) and returns the new position.
func (s *Surface) Nudge(dx, dy int) (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y = s.clamp(s.x+dx, s.y+dy)
	s.redraw()
	return s.x, s.y
}

// Events handles keys until ctx is done or the user quits: q, Esc and
// Ctrl-C call quit; arrow keys move the overlay and report the new origin
// to onMove.
func (s *Surface) Events(ctx context.Context, quit func(), onMove func(x, y int)) {
	go func() {
		<-ctx.Done()
		s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
	for {
		ev := s.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			s.mu.Lock()
			s.screen.Sync()
			s.redraw()
			s.mu.Unlock()
		case *tcell.EventKey:
			dx, dy := 0, 0
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				quit()
				return
			case tcell.KeyRune:
				if ev.Rune() == 'q' {
					quit()
					return
				}
				continue
			case tcell.KeyUp:
				dy = -1
			case tcell.KeyDown:
				dy = 1
			case tcell.KeyLeft:
				dx = -1
			case tcell.KeyRight:
				dx = 1
			default:
				continue
			}
			x, y := s.Nudge(dx, dy)
			if onMove != nil {
				onMove(x, y)
			}
		}
	}
}

func (s *Surface) clamp(x, y int) (int, int) {
	w, h := s.screen.Size()
	x = min(max(x, 0), max(w-1, 0))
	y = min(max(y, 0), max(h-1, 0))
	return x, y
}

// redraw repaints the whole screen; callers hold s.mu.
func (s *Surface) redraw() {
	s.screen.Clear()
	if a := s.current; a != nil {
		if len(a.Lines) > 0 {
			s.drawLines(a.Lines)
		} else if a.Image != nil {
			s.drawImage(a.Image)
		}
	}
	s.screen.Show()
}

func (s *Surface) drawLines(lines []compositor.Line) {
	for row, line := range lines {
		col := s.x
		for _, tok := range line {
			style := tcell.StyleDefault.Foreground(rgb(tok.Color.R, tok.Color.G, tok.Color.B))
			for _, r := range tok.Text {
				s.screen.SetContent(col, s.y+row, r, nil, style)
				col++
			}
		}
	}
}

// drawImage samples img onto half-block cells, each cell covering two
// vertically stacked pixels of the scaled image.
func (s *Surface) drawImage(img *image.RGBA) {
	b := img.Bounds()
	step := 1
	if b.Dx() > MaxImageColumns {
		step = (b.Dx() + MaxImageColumns - 1) / MaxImageColumns
	}
	for py, row := b.Min.Y, 0; py < b.Max.Y; py, row = py+2*step, row+1 {
		for px, col := b.Min.X, 0; px < b.Max.X; px, col = px+step, col+1 {
			top := img.RGBAAt(px, py)
			bottom := img.RGBAAt(px, py+step)
			if top.A < 0x80 && bottom.A < 0x80 {
				continue
			}
			style := tcell.StyleDefault
			if top.A >= 0x80 {
				style = style.Foreground(rgb(top.R, top.G, top.B))
			}
			if bottom.A >= 0x80 {
				style = style.Background(rgb(bottom.R, bottom.G, bottom.B))
			}
			ch := '▀'
			if top.A < 0x80 {
				ch = '▄'
				style = tcell.StyleDefault.Foreground(rgb(bottom.R, bottom.G, bottom.B))
			}
			s.screen.SetContent(s.x+col, s.y+row, ch, nil, style)
		}
	}
}

func rgb(r, g, b uint8) tcell.Color {
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
