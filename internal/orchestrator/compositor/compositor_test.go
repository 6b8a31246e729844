package compositor

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/nbtrackr/internal/customize"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/display"
	"github.com/GriffinCanCode/nbtrackr/internal/signal"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func triangulation(preds ...signal.Prediction) display.Snapshot {
	return display.Snapshot{
		Boat: signal.DefaultBoat(),
		Stronghold: signal.Stronghold{
			ResultType:  signal.ResultTriangulation,
			Predictions: preds,
			Player:      signal.Player{X: 4, Z: -100, HasAngle: true},
		},
	}
}

func blindSnapshot() display.Snapshot {
	return display.Snapshot{
		Boat:       signal.DefaultBoat(),
		Stronghold: signal.DefaultStronghold(),
		Blind: signal.Blind{Enabled: true, Result: &signal.BlindResult{
			Evaluation: signal.EvalHighrollGood, XInNether: 120, ZInNether: -35,
			HighrollProbability: 0.123, HighrollThreshold: 400,
			ImproveDirection: 1.5707963267948966, ImproveDistance: 42.4,
		}},
		BlindShowing:  true,
		BlindDeadline: display.Never(),
	}
}

func boatSnapshot(kind display.Kind, angle float64) display.Snapshot {
	state := signal.BoatValid
	if kind == display.KindError {
		state = signal.BoatError
	}
	return display.Snapshot{
		Boat:       signal.Boat{State: state, Angle: angle},
		Stronghold: signal.DefaultStronghold(),
		LastShown:  kind,
		ShowUntil:  now.Add(5 * time.Second),
	}
}

func compose(t *testing.T, c *Compositor, s display.Snapshot, cfg customize.RenderConfig) *Artifact {
	t.Helper()
	a, err := c.Compose(context.Background(), s, cfg, now)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	return a
}

func TestEndToEndTableRow(t *testing.T) {
	s := triangulation(signal.Prediction{ChunkX: 0, ChunkZ: 0, Certainty: 0.82, OverworldDistance: 120, Complete: true})
	a := compose(t, New(), s, customize.Defaults())
	if a == nil {
		t.Fatal("expected an artifact")
	}
	if a.Mode != ModeTable || len(a.Lines) != 1 {
		t.Fatalf("mode %s with %d lines, want one table row", a.Mode, len(a.Lines))
	}
	text := a.Text()
	for _, want := range []string{"120", "82%", "(4, 4)", "(1, 1)"} {
		if !strings.Contains(text, want) {
			t.Errorf("row %q missing %q", text, want)
		}
	}
	if a.Width <= 2*Padding || a.Height <= 2*Padding || a.Image.Bounds().Dx() != a.Width {
		t.Errorf("bad canvas %dx%d", a.Width, a.Height)
	}
	if got := a.Lines[0][0]; got.Text != "120" || got.Color != WarningColor {
		t.Errorf("distance token = %+v, want warning colour at 120 blocks", got)
	}
	if got := a.Lines[0][2]; got.Text != "82%" || got.Color != CertaintyColor(82) {
		t.Errorf("certainty token = %+v", got)
	}
}

func TestDistanceColouring(t *testing.T) {
	text := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	tests := []struct {
		name     string
		dist     float64
		nether   bool
		wantText string
		warn     bool
	}{
		{"far", 1500.4, false, "1500", false},
		{"threshold", 193, false, "193", true},
		{"just past", 193.2, false, "193", false},
		{"nether scaled", 800, true, "100", false},
		{"nether close", 100, true, "13", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := signal.Prediction{OverworldDistance: tt.dist, Complete: true}
			toks := fieldTokens(customize.FieldDistance, p, signal.Player{IsInNether: tt.nether}, customize.Defaults(), text)
			if toks[0].Text != tt.wantText {
				t.Errorf("text = %q, want %q", toks[0].Text, tt.wantText)
			}
			if (toks[0].Color == WarningColor) != tt.warn {
				t.Errorf("warning = %v, want %v", toks[0].Color == WarningColor, tt.warn)
			}
		})
	}
}

func TestTableRespectsOrderAndLimits(t *testing.T) {
	cfg := customize.Defaults()
	cfg.ShownMeasurements = 2
	cfg.TextOrder = []string{customize.FieldCertainty, customize.FieldDistance}
	s := triangulation(
		signal.Prediction{Certainty: 0.5, OverworldDistance: 1000, Complete: true},
		signal.Prediction{Certainty: 0.3, OverworldDistance: 2000},
		signal.Prediction{Certainty: 0.1, OverworldDistance: 3000, Complete: true},
		signal.Prediction{Certainty: 0.05, OverworldDistance: 4000, Complete: true},
	)
	a := compose(t, New(), s, cfg)
	if a == nil || len(a.Lines) != 2 {
		t.Fatalf("artifact = %+v, want two rows", a)
	}
	if got := a.Text(); got != "50%  1000\n10%  3000" {
		t.Errorf("Text() = %q", got)
	}
}

func TestCoordsByDimension(t *testing.T) {
	cfg := customize.Defaults()
	cfg.ShowCoordsBasedOnDimension = true
	cfg.TextOrder = []string{customize.FieldOverworldCoords, customize.FieldNetherCoords}
	pred := signal.Prediction{ChunkX: 10, ChunkZ: 10, Complete: true, Certainty: 1}
	text := color.RGBA{A: 255}

	ow := tableRows(signal.Stronghold{Predictions: []signal.Prediction{pred}}, cfg, text)
	if got := lineText(ow[0]); got != "(164, 164)" {
		t.Errorf("overworld row = %q", got)
	}
	nether := tableRows(signal.Stronghold{Predictions: []signal.Prediction{pred}, Player: signal.Player{IsInNether: true}}, cfg, text)
	if got := lineText(nether[0]); got != "(21, 21)" {
		t.Errorf("nether row = %q", got)
	}
}

func TestAngleDirectionToken(t *testing.T) {
	cfg := customize.Defaults()
	cfg.ShowAngleDirection = true
	cfg.TextOrder = []string{customize.FieldAngle}
	s := triangulation(signal.Prediction{Certainty: 1, OverworldDistance: 500, Complete: true})
	s.Stronghold.Player.HorizontalAngle = -30

	rows := tableRows(s.Stronghold, cfg, color.RGBA{A: 255})
	if got := lineText(rows[0]); got != "0 -> 30" {
		t.Errorf("angle row = %q", got)
	}
	if c := rows[0][len(rows[0])-1].Color; c != GradientColor(30) {
		t.Errorf("turn colour = %v", c)
	}
}

func TestAngleRoundsIntoRange(t *testing.T) {
	cfg := customize.Defaults()
	cfg.TextOrder = []string{customize.FieldAngle}
	tests := []struct {
		name   string
		px, pz float64
		want   string
	}{
		{"rounds onto -180", 3.3, 1004, "180"},
		{"due north", 4, 100, "180"},
		{"due south", 4, -100, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := triangulation(signal.Prediction{Certainty: 1, OverworldDistance: 500, Complete: true})
			s.Stronghold.Player = signal.Player{X: tt.px, Z: tt.pz}
			rows := tableRows(s.Stronghold, cfg, color.RGBA{A: 255})
			if got := lineText(rows[0]); got != tt.want {
				t.Errorf("angle row = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisabledFieldsHide(t *testing.T) {
	cfg := customize.Defaults()
	for _, f := range customize.Fields {
		cfg.TextEnabled[f] = false
	}
	s := triangulation(signal.Prediction{Certainty: 1, OverworldDistance: 500, Complete: true})
	if m := Select(s, cfg, now); m != ModeHidden {
		t.Errorf("Select() = %s, want hidden", m)
	}
	if a := compose(t, New(), s, cfg); a != nil {
		t.Error("all fields disabled should hide")
	}
}

func TestSelectPriority(t *testing.T) {
	failed := display.Snapshot{Stronghold: signal.Stronghold{ResultType: signal.ResultFailed}}
	failedWithBlind := blindSnapshot()
	failedWithBlind.Stronghold.ResultType = signal.ResultFailed
	blindAndBoat := blindSnapshot()
	blindAndBoat.Boat = signal.Boat{State: signal.BoatError}
	blindAndBoat.LastShown = display.KindError
	blindAndBoat.ShowUntil = now.Add(time.Second)
	boatInNether := boatSnapshot(display.KindError, 3)
	boatInNether.Stronghold.Player.IsInNether = true
	expired := boatSnapshot(display.KindError, 3)
	expired.ShowUntil = time.Time{}
	noBlindInfo := customize.Defaults()
	noBlindInfo.ShowBlindInfo = false
	noError := customize.Defaults()
	noError.ShowErrorMessage = false
	pinned := customize.Defaults()
	pinned.UseCustomPinnedImage = false

	tests := []struct {
		name string
		snap display.Snapshot
		cfg  customize.RenderConfig
		want Mode
	}{
		{"error message", failed, customize.Defaults(), ModeError},
		{"error beats blind", failedWithBlind, customize.Defaults(), ModeError},
		{"error disabled falls through", failed, noError, ModeHidden},
		{"blind beats boat", blindAndBoat, customize.Defaults(), ModeBlind},
		{"blind disabled shows boat", blindAndBoat, noBlindInfo, ModeBoatError},
		{"boat valid", boatSnapshot(display.KindValid, 12), customize.Defaults(), ModeBoatValid},
		{"boat error", boatSnapshot(display.KindError, 0), customize.Defaults(), ModeBoatError},
		{"aligned valid boat suppressed", boatSnapshot(display.KindValid, 0), customize.Defaults(), ModeHidden},
		{"expired boat suppressed", expired, customize.Defaults(), ModeHidden},
		{"boat not shown in nether", boatInNether, customize.Defaults(), ModeHidden},
		{"table", triangulation(signal.Prediction{Complete: true}), customize.Defaults(), ModeTable},
		{"incomplete predictions hide", triangulation(signal.Prediction{Certainty: 1}), customize.Defaults(), ModeHidden},
		{"pinned passthrough", triangulation(), pinned, ModePinned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Select(tt.snap, tt.cfg, now); got != tt.want {
				t.Errorf("Select() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBlindArtifact(t *testing.T) {
	a := compose(t, New(), blindSnapshot(), customize.Defaults())
	if a == nil || a.Mode != ModeBlind || len(a.Lines) != 3 {
		t.Fatalf("artifact = %+v", a)
	}
	want := "Blind coords (120, -35) are good for highroll\n" +
		"12.3% chance of 400 block highroll\n" +
		"Head 90°, 42 blocks away, for better coords."
	if got := a.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if c := a.Lines[0][1].Color; c != EvaluationColor(signal.EvalHighrollGood) {
		t.Errorf("evaluation colour = %v", c)
	}
	if c := a.Lines[1][0].Color; c != CertaintyColor(12.3) {
		t.Errorf("probability colour = %v", c)
	}
}

func TestBlindHiddenPastDeadline(t *testing.T) {
	s := blindSnapshot()
	s.BlindDeadline = display.At(now.Add(-time.Millisecond))
	if m := Select(s, customize.Defaults(), now); m == ModeBlind {
		t.Error("blind shown past its deadline")
	}
}

func TestBoatIconBuiltinAndFile(t *testing.T) {
	c := New()
	a := compose(t, c, boatSnapshot(display.KindValid, 5), customize.Defaults())
	if a == nil || a.Width != IconWidth || a.Height != IconHeight {
		t.Fatalf("built-in icon = %+v", a)
	}

	dir := t.TempDir()
	custom := image.NewRGBA(image.Rect(0, 0, 20, 10))
	custom.Set(3, 3, color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, ErrorIconFile), custom)

	cfg := customize.Defaults()
	cfg.BoatIconDir = dir
	a = compose(t, c, boatSnapshot(display.KindError, 5), cfg)
	if a == nil || a.Width != 20 || a.Height != 10 {
		t.Fatalf("file icon = %+v", a)
	}

	// A missing green icon in the same dir falls back to the drawn hull.
	a = compose(t, c, boatSnapshot(display.KindValid, 5), cfg)
	if a == nil || a.Width != IconWidth {
		t.Errorf("fallback icon = %+v", a)
	}
}

func TestPinnedPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nb-overlay.png")
	cfg := customize.Defaults()
	cfg.UseCustomPinnedImage = false
	cfg.PinnedImagePath = path
	c := New()

	if a := compose(t, c, triangulation(), cfg); a != nil {
		t.Error("missing pinned image should hide")
	}
	if PinnedStamp(path) != "" {
		t.Error("stamp of a missing file should be empty")
	}

	writePNG(t, path, image.NewRGBA(image.Rect(0, 0, 30, 30)))
	if a := compose(t, c, triangulation(), cfg); a != nil {
		t.Error("transparent pinned image should hide")
	}

	visible := image.NewRGBA(image.Rect(0, 0, 30, 30))
	visible.Set(29, 29, color.RGBA{B: 10, A: 10})
	writePNG(t, path, visible)
	a := compose(t, c, triangulation(), cfg)
	if a == nil || a.Mode != ModePinned || a.Width != 30 {
		t.Fatalf("pinned artifact = %+v", a)
	}
	if PinnedStamp(path) == "" {
		t.Error("stamp should identify an existing file")
	}
}

func TestFontFallback(t *testing.T) {
	cfg := customize.Defaults()
	cfg.FontPath = filepath.Join(t.TempDir(), "missing.ttf")
	cfg.FontName = "no-such-font"
	s := triangulation(signal.Prediction{Certainty: 0.5, OverworldDistance: 900, Complete: true})

	a := compose(t, New(), s, cfg)
	if a == nil || a.Width == 0 {
		t.Fatal("fallback font should still render")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	s := triangulation(signal.Prediction{ChunkX: 3, ChunkZ: -8, Certainty: 0.64, OverworldDistance: 700, Complete: true})
	a := compose(t, New(), s, customize.Defaults())
	b := compose(t, New(), s, customize.Defaults())

	ha, hb := phash(t, a.Image), phash(t, b.Image)
	if d, err := ha.Distance(hb); err != nil || d != 0 {
		t.Errorf("identical inputs rendered differently: distance %d, err %v", d, err)
	}
	if string(a.Image.Pix) != string(b.Image.Pix) {
		t.Error("identical inputs produced different pixels")
	}
}

func TestDifferentModesLookDifferent(t *testing.T) {
	c := New()
	table := compose(t, c, triangulation(
		signal.Prediction{Certainty: 0.9, OverworldDistance: 1500, Complete: true},
		signal.Prediction{Certainty: 0.1, OverworldDistance: 2500, Complete: true},
	), func() customize.RenderConfig { cfg := customize.Defaults(); cfg.ShownMeasurements = 2; return cfg }())
	blind := compose(t, c, blindSnapshot(), customize.Defaults())

	d, err := phash(t, table.Image).Distance(phash(t, blind.Image))
	if err != nil {
		t.Fatal(err)
	}
	if d == 0 {
		t.Error("table and blind renders should not hash identically")
	}
}

func TestCanvasPaddingUsesBackground(t *testing.T) {
	cfg := customize.Defaults()
	cfg.BackgroundColor = "#102030"
	a := compose(t, New(), triangulation(signal.Prediction{Certainty: 0.5, OverworldDistance: 900, Complete: true}), cfg)
	want := color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}
	for _, p := range []image.Point{{0, 0}, {a.Width - 1, a.Height - 1}} {
		if got := a.Image.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel %v = %v, want background %v", p, got, want)
		}
	}
}

func lineText(l Line) string {
	var b strings.Builder
	for _, t := range l {
		b.WriteString(t.Text)
	}
	return b.String()
}

func phash(t *testing.T, img image.Image) *goimagehash.ImageHash {
	t.Helper()
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		t.Fatalf("PerceptionHash() error = %v", err)
	}
	return h
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}
