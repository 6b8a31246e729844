package customize

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
)

func TestParseMergesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"shown_measurements": 3, "text_enabled": {"angle": false}}`), false)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.ShownMeasurements != 3 {
		t.Errorf("ShownMeasurements = %d, want 3", cfg.ShownMeasurements)
	}
	if cfg.Enabled(FieldAngle) {
		t.Error("angle should be disabled")
	}
	if !cfg.Enabled(FieldDistance) {
		t.Error("distance should keep its default")
	}
	if !reflect.DeepEqual(cfg.TextOrder, Fields) {
		t.Errorf("TextOrder = %v, want defaults", cfg.TextOrder)
	}
	if cfg.FontSize != DefaultFontSize || !cfg.ShowBoatIcon {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
}

func TestParseMigratesLegacyKeys(t *testing.T) {
	doc := `{
		"Shown_measurements": 2,
		"text_order": ["Coordinates", "Vertical Angle", "distance", "Horizontal Angle"],
		"text_enabled": {"Coordinates": false, "Vertical Angle": true}
	}`
	cfg, err := Parse([]byte(doc), false)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.ShownMeasurements != 2 {
		t.Errorf("ShownMeasurements = %d, want 2", cfg.ShownMeasurements)
	}
	want := []string{FieldOverworldCoords, FieldDistance, FieldAngle}
	if !reflect.DeepEqual(cfg.TextOrder, want) {
		t.Errorf("TextOrder = %v, want %v", cfg.TextOrder, want)
	}
	if cfg.Enabled(FieldOverworldCoords) {
		t.Error("renamed text_enabled entry should carry its value")
	}
	if _, ok := cfg.TextEnabled["Vertical Angle"]; ok {
		t.Error("dropped legacy key survived")
	}
}

func TestParseYAML(t *testing.T) {
	doc := "shown_measurements: 4\nshow_angle_direction: true\nblind_hide_after: 5\ntext_color: \"#FF0000\"\n"
	cfg, err := Parse([]byte(doc), true)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.ShownMeasurements != 4 || !cfg.ShowAngleDirection || cfg.TextColor != "#FF0000" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.HideAfter() != 5*time.Second {
		t.Errorf("HideAfter() = %v, want 5s", cfg.HideAfter())
	}
}

func TestHideAfter(t *testing.T) {
	tests := []struct {
		secs float64
		want time.Duration
	}{
		{0, 0},
		{-3, 0},
		{1.5, 1500 * time.Millisecond},
		{86400, MaxBlindHideAfter},
		{1e10, MaxBlindHideAfter},
		{math.Inf(1), MaxBlindHideAfter},
	}
	for _, tt := range tests {
		cfg := RenderConfig{BlindHideAfter: tt.secs}
		if got := cfg.HideAfter(); got != tt.want {
			t.Errorf("HideAfter(%v) = %v, want %v", tt.secs, got, tt.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"shown_measurements": `},
		{"not an object", `[1, 2]`},
		{"wrong type", `{"show_boat_icon": "yes"}`},
		{"bad colour", `{"text_color": "red"}`},
		{"negative hide", `{"blind_hide_after": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc), false)
			if !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
				t.Errorf("error = %v, want CONFIG_INVALID", err)
			}
			if !reflect.DeepEqual(cfg, Defaults()) {
				t.Error("invalid document should yield defaults")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg, err := Parse([]byte(`{"shown_measurements": 99, "text_order": ["angle", "bogus", "angle"]}`), false)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.ShownMeasurements != MaxShownMeasurements {
		t.Errorf("ShownMeasurements = %d, want clamp to %d", cfg.ShownMeasurements, MaxShownMeasurements)
	}
	if !reflect.DeepEqual(cfg.TextOrder, []string{FieldAngle}) {
		t.Errorf("TextOrder = %v", cfg.TextOrder)
	}
}

func TestLayout(t *testing.T) {
	cfg := Defaults()
	cfg.TextOrder = []string{FieldCertainty, FieldDistance}
	cfg.TextEnabled[FieldDistance] = false

	l := cfg.Layout()
	if got := l.Keys(); !reflect.DeepEqual(got, []string{FieldCertainty, FieldDistance}) {
		t.Errorf("Keys() = %v", got)
	}
	if on, _ := l.Get(FieldDistance); on {
		t.Error("distance should be disabled in layout")
	}
}

func TestStoreReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customizations.json")
	s := NewStore(path)

	if got := s.Load(); !reflect.DeepEqual(got, Defaults()) {
		t.Error("missing file should yield defaults")
	}

	write := func(body string, mtime time.Time) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	base := time.Now().Add(-time.Hour)
	write(`{"shown_measurements": 2}`, base)
	if got := s.Load().ShownMeasurements; got != 2 {
		t.Errorf("ShownMeasurements = %d, want 2", got)
	}

	write(`{"shown_measurements": 5}`, base.Add(time.Second))
	if got := s.Load().ShownMeasurements; got != 5 {
		t.Errorf("after rewrite ShownMeasurements = %d, want 5", got)
	}

	write(`{"shown_measurements": `, base.Add(2*time.Second))
	if got := s.Load(); !reflect.DeepEqual(got, Defaults()) {
		t.Error("malformed rewrite should yield defaults")
	}
}

func TestStoreSnapshotsAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customizations.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)

	a := s.Load()
	a.TextEnabled[FieldDistance] = false
	a.TextOrder[0] = FieldAngle

	b := s.Load()
	if !b.Enabled(FieldDistance) || b.TextOrder[0] != FieldDistance {
		t.Error("mutating a snapshot leaked into the cache")
	}
}
