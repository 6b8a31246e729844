package term

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/compositor"
)

func newSim(t *testing.T) (tcell.SimulationScreen, *Surface) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen, New(screen)
}

func rowText(screen tcell.SimulationScreen, x, y, n int) string {
	out := make([]rune, 0, n)
	for i := 0; i < n; i++ {
		r, _, _, _ := screen.GetContent(x+i, y)
		out = append(out, r)
	}
	return string(out)
}

func TestShowLines(t *testing.T) {
	screen, s := newSim(t)
	red := color.RGBA{R: 255, A: 255}
	a := &compositor.Artifact{Mode: compositor.ModeTable, Lines: []compositor.Line{
		{{Text: "120", Color: red}, {Text: "  "}, {Text: "82%", Color: color.RGBA{G: 255, A: 255}}},
	}}

	if err := s.PlaceAt(context.Background(), 2, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Show(context.Background(), a); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if got := rowText(screen, 2, 1, 8); got != "120  82%" {
		t.Errorf("row = %q", got)
	}
	_, _, style, _ := screen.GetContent(2, 1)
	if fg, _, _ := style.Decompose(); fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("foreground = %v, want red", fg)
	}

	if err := s.Hide(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := rowText(screen, 2, 1, 3); got != "   " {
		t.Errorf("after hide row = %q", got)
	}
}

func TestShowImageHalfBlocks(t *testing.T) {
	screen, s := newSim(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(0, 0, color.RGBA{G: 255, A: 255})
	img.SetRGBA(0, 1, color.RGBA{B: 255, A: 255})
	img.SetRGBA(1, 3, color.RGBA{R: 255, A: 255})

	if err := s.Show(context.Background(), &compositor.Artifact{Image: img, Width: 4, Height: 4}); err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := screen.GetContent(0, 0); r != '▀' {
		t.Errorf("cell (0,0) = %q, want upper half block", r)
	}
	if r, _, _, _ := screen.GetContent(1, 1); r != '▄' {
		t.Errorf("cell (1,1) = %q, want lower half block", r)
	}
	if r, _, _, _ := screen.GetContent(3, 0); r != ' ' {
		t.Errorf("transparent cell = %q", r)
	}
}

func TestPlaceAtClamps(t *testing.T) {
	_, s := newSim(t)
	_ = s.PlaceAt(context.Background(), 500, -3)
	if x, y := s.Origin(); x != 79 || y != 0 {
		t.Errorf("Origin() = %d, %d; want 79, 0", x, y)
	}
}

func TestEventsMoveAndQuit(t *testing.T) {
	screen, s := newSim(t)
	var moves [][2]int
	quit := make(chan struct{})

	done := make(chan struct{})
	go func() {
		s.Events(context.Background(), func() { close(quit) }, func(x, y int) {
			moves = append(moves, [2]int{x, y})
		})
		close(done)
	}()

	screen.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event loop did not quit")
	}
	select {
	case <-quit:
	default:
		t.Error("quit callback not called")
	}
	if len(moves) != 2 || moves[1] != [2]int{1, 1} {
		t.Errorf("moves = %v, want [[1 0] [1 1]]", moves)
	}
}

func TestEventsStopOnCancel(t *testing.T) {
	_, s := newSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Events(ctx, func() {}, nil)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event loop ignored cancellation")
	}
}
