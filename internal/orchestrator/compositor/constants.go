package compositor

// Layout constants, in pixels unless noted.
const (
	Padding     = 8
	LineSpacing = 4
	FontDPI     = 72

	// Canvas size of the procedurally drawn boat icon.
	IconWidth  = 48
	IconHeight = 32

	// WarningDistance is the overworld distance at or below which the
	// distance field is highlighted.
	WarningDistance = 193.0

	// Separator between tokens of one row.
	TokenGap = "  "

	ErrorMessage = "Could not determine the stronghold chunk."
)

// Icon file names looked up in boat_icon_dir.
const (
	ValidIconFile = "boat_green.png"
	ErrorIconFile = "boat_red.png"
)
