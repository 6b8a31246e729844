package window

// dragTracker turns mouse state into window moves. Cursor coordinates are
// window-relative, so while the window follows the cursor the grab point
// stays fixed.
type dragTracker struct {
	active       bool
	moved        bool
	grabX, grabY int
}

// step consumes one frame of input. It returns the new window position
// when the window should move, and done when a drag that moved the window
// was released.
func (d *dragTracker) step(pressed bool, cursorX, cursorY, winX, winY int) (x, y int, move, done bool) {
	switch {
	case pressed && !d.active:
		d.active, d.moved = true, false
		d.grabX, d.grabY = cursorX, cursorY
	case pressed:
		dx, dy := cursorX-d.grabX, cursorY-d.grabY
		if dx != 0 || dy != 0 {
			d.moved = true
			return winX + dx, winY + dy, true, false
		}
	case d.active:
		d.active = false
		return winX, winY, false, d.moved
	}
	return winX, winY, false, false
}
