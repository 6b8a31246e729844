// Package customize loads the user's overlay customizations.
package customize

import (
	"time"

	"github.com/elliotchance/orderedmap/v2"
)

// Field keys accepted in text_order and text_enabled.
const (
	FieldDistance        = "distance"
	FieldCertainty       = "certainty_percentage"
	FieldAngle           = "angle"
	FieldOverworldCoords = "overworld_coords"
	FieldNetherCoords    = "nether_coords"
)

// Fields lists every known field key in default display order.
var Fields = []string{FieldDistance, FieldCertainty, FieldAngle, FieldOverworldCoords, FieldNetherCoords}

const (
	MinShownMeasurements = 1
	MaxShownMeasurements = 5

	// MaxBlindHideAfter caps blind_hide_after.
	MaxBlindHideAfter = 24 * time.Hour

	DefaultFontName        = "go"
	DefaultFontSize        = 18.0
	DefaultBackgroundColor = "#1E1E1ED2"
	DefaultTextColor       = "#FFFFFF"
	DefaultPinnedImagePath = "/tmp/nb-overlay.png"
)

// RenderConfig is one immutable snapshot of the customizations file.
type RenderConfig struct {
	TextOrder                  []string        `json:"text_order"`
	TextEnabled                map[string]bool `json:"text_enabled"`
	ShownMeasurements          int             `json:"shown_measurements"`
	ShowAngleDirection         bool            `json:"show_angle_direction"`
	ShowCoordsBasedOnDimension bool            `json:"show_coords_based_on_dimension"`
	ShowBoatIcon               bool            `json:"show_boat_icon"`
	ShowErrorMessage           bool            `json:"show_error_message"`
	ShowBlindInfo              bool            `json:"show_blind_info"`
	BlindHideAfter             float64         `json:"blind_hide_after"` // seconds, 0 keeps it up
	UseCustomPinnedImage       bool            `json:"use_custom_pinned_image"`
	FontName                   string          `json:"font_name"`
	FontPath                   string          `json:"font_path"`
	FontSize                   float64         `json:"font_size"`
	BackgroundColor            string          `json:"background_color"`
	TextColor                  string          `json:"text_color"`
	BoatIconDir                string          `json:"boat_icon_dir"`
	PinnedImagePath            string          `json:"pinned_image_path"`
}

// Defaults returns a fresh default configuration.
func Defaults() RenderConfig {
	enabled := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		enabled[f] = true
	}
	return RenderConfig{
		TextOrder:            append([]string(nil), Fields...),
		TextEnabled:          enabled,
		ShownMeasurements:    1,
		ShowBoatIcon:         true,
		ShowErrorMessage:     true,
		ShowBlindInfo:        true,
		UseCustomPinnedImage: true,
		FontName:             DefaultFontName,
		FontSize:             DefaultFontSize,
		BackgroundColor:      DefaultBackgroundColor,
		TextColor:            DefaultTextColor,
		PinnedImagePath:      DefaultPinnedImagePath,
	}
}

// HideAfter converts blind_hide_after to a duration. Zero means never.
func (c RenderConfig) HideAfter() time.Duration {
	if c.BlindHideAfter <= 0 {
		return 0
	}
	if c.BlindHideAfter >= MaxBlindHideAfter.Seconds() {
		return MaxBlindHideAfter
	}
	return time.Duration(c.BlindHideAfter * float64(time.Second))
}

// Enabled reports whether field is switched on. Fields absent from
// text_enabled are on.
func (c RenderConfig) Enabled(field string) bool {
	on, ok := c.TextEnabled[field]
	return !ok || on
}

// Layout returns the fields in display order mapped to their enabled flag.
func (c RenderConfig) Layout() *orderedmap.OrderedMap[string, bool] {
	m := orderedmap.NewOrderedMap[string, bool]()
	for _, f := range c.TextOrder {
		m.Set(f, c.Enabled(f))
	}
	return m
}

// Clone returns a deep copy so callers never share the maps of a cached
// snapshot.
func (c RenderConfig) Clone() RenderConfig {
	out := c
	out.TextOrder = append([]string(nil), c.TextOrder...)
	out.TextEnabled = make(map[string]bool, len(c.TextEnabled))
	for k, v := range c.TextEnabled {
		out.TextEnabled[k] = v
	}
	return out
}

func isField(key string) bool {
	for _, f := range Fields {
		if f == key {
			return true
		}
	}
	return false
}

// normalize drops unknown or repeated fields and clamps the row count.
func (c *RenderConfig) normalize() {
	seen := make(map[string]bool, len(c.TextOrder))
	order := c.TextOrder[:0]
	for _, f := range c.TextOrder {
		if isField(f) && !seen[f] {
			seen[f] = true
			order = append(order, f)
		}
	}
	if len(order) == 0 {
		order = append(order, Fields...)
	}
	c.TextOrder = order

	if c.TextEnabled == nil {
		c.TextEnabled = map[string]bool{}
	}
	if c.ShownMeasurements < MinShownMeasurements {
		c.ShownMeasurements = MinShownMeasurements
	}
	if c.ShownMeasurements > MaxShownMeasurements {
		c.ShownMeasurements = MaxShownMeasurements
	}
	if c.FontSize <= 0 {
		c.FontSize = DefaultFontSize
	}
	if c.FontName == "" {
		c.FontName = DefaultFontName
	}
	if c.PinnedImagePath == "" {
		c.PinnedImagePath = DefaultPinnedImagePath
	}
}
