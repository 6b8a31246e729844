// Package window shows the overlay in a borderless, transparent,
// always-on-top desktop window.
package window

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/compositor"
	"github.com/GriffinCanCode/nbtrackr/internal/surface"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// Title is the window title shown by task switchers.
const Title = "NBTrackr"

// platform is the subset of the ebiten window API the surface drives.
type platform interface {
	SetSize(w, h int)
	SetPosition(x, y int)
	Position() (x, y int)
	SetPassthrough(enabled bool)
	Cursor() (x, y int, pressed bool)
}

type ebitenPlatform struct{}

func (ebitenPlatform) SetSize(w, h int)            { ebiten.SetWindowSize(w, h) }
func (ebitenPlatform) SetPosition(x, y int)        { ebiten.SetWindowPosition(x, y) }
func (ebitenPlatform) Position() (int, int)        { return ebiten.WindowPosition() }
func (ebitenPlatform) SetPassthrough(enabled bool) { ebiten.SetWindowMousePassthrough(enabled) }

func (ebitenPlatform) Cursor() (int, int, bool) {
	x, y := ebiten.CursorPosition()
	return x, y, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
}

// Window is both the presenter and the surface: its game loop drains the
// mailbox on the main thread, where window calls are allowed.
type Window struct {
	ctx    context.Context
	mb     *surface.Mailbox
	plat   platform
	onMove func(x, y int)
	log    *slog.Logger

	mu      sync.Mutex
	current *compositor.Artifact
	img     *ebiten.Image
	stale   bool
	drag    dragTracker
}

// New creates a window fed by mb. onMove receives the window position after
// the user drags it.
func New(ctx context.Context, mb *surface.Mailbox, onMove func(x, y int)) *Window {
	return newWindow(ctx, mb, ebitenPlatform{}, onMove)
}

func newWindow(ctx context.Context, mb *surface.Mailbox, plat platform, onMove func(x, y int)) *Window {
	return &Window{
		ctx:    ctx,
		mb:     mb,
		plat:   plat,
		onMove: onMove,
		log:    trace.Logger(ctx).With("surface", "window"),
	}
}

// Run opens the window and blocks until ctx is done. It must be called from
// the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowTitle(Title)
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetTPS(30)
	w.plat.SetSize(1, 1)
	w.plat.SetPassthrough(true)

	err := ebiten.RunGameWithOptions(w, &ebiten.RunGameOptions{
		ScreenTransparent: true,
		SkipTaskbar:       true,
		InitUnfocused:     true,
		X11ClassName:      Title,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "run overlay window")
	}
	return nil
}

// Update applies pending mailbox commands and handles dragging.
func (w *Window) Update() error {
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}
	if err := w.mb.Deliver(w.ctx, w); err != nil {
		w.log.Warn("window rejected command", "error", err)
	}
	w.handleDrag()
	return nil
}

func (w *Window) handleDrag() {
	w.mu.Lock()
	visible := w.current != nil
	w.mu.Unlock()
	if !visible {
		return
	}

	cx, cy, pressed := w.plat.Cursor()
	wx, wy := w.plat.Position()
	x, y, move, done := w.drag.step(pressed, cx, cy, wx, wy)
	if move {
		w.plat.SetPosition(x, y)
	}
	if done && w.onMove != nil {
		w.log.Debug("window dragged", "x", x, "y", y)
		w.onMove(x, y)
	}
}

// Draw paints the current artifact.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return
	}
	if w.stale || w.img == nil {
		if w.img != nil {
			w.img.Deallocate()
		}
		w.img = ebiten.NewImageFromImage(w.current.Image)
		w.stale = false
	}
	screen.DrawImage(w.img, nil)
}

// Layout sizes the logical screen to the artifact.
func (w *Window) Layout(_, _ int) (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return 1, 1
	}
	return w.current.Width, w.current.Height
}

// Show resizes the window to the artifact and schedules a redraw.
func (w *Window) Show(_ context.Context, a *compositor.Artifact) error {
	if a == nil || a.Image == nil || a.Width <= 0 || a.Height <= 0 {
		return apperrors.New(apperrors.CodeInvalidArgument, "artifact has no image")
	}
	w.mu.Lock()
	w.current, w.stale = a, true
	w.mu.Unlock()

	w.plat.SetSize(a.Width, a.Height)
	w.plat.SetPassthrough(false)
	return nil
}

// Hide shrinks the window to a transparent pixel that ignores the mouse.
func (w *Window) Hide(context.Context) error {
	w.mu.Lock()
	w.current = nil
	w.mu.Unlock()

	w.plat.SetSize(1, 1)
	w.plat.SetPassthrough(true)
	return nil
}

// PlaceAt moves the window.
func (w *Window) PlaceAt(_ context.Context, x, y int) error {
	w.plat.SetPosition(x, y)
	return nil
}

// Showing returns the artifact on screen, or nil.
func (w *Window) Showing() *compositor.Artifact {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
