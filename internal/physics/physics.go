// Package physics provides hit-testing geometry for the board.
package physics

// Rect is an axis-aligned rectangle in terminal cells. X and Y are the
// top-left cell, 1-based like terminal coordinates.
type Rect struct {
	X, Y int
	W, H int
}

// Contains reports whether the cell (col, row) lies inside r.
func (r Rect) Contains(col, row int) bool {
	return col >= r.X && col < r.X+r.W && row >= r.Y && row < r.Y+r.H
}

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Bottom returns the first row below r.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Lerp interpolates linearly between a and b. t is clamped to [0, 1].
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*Clamp(t, 0, 1)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Collider returns the part of sprite that is out of the hole at progress
// (0 hidden, 1 fully up). The collider is anchored at the bottom edge and
// grows upward with the rise, so a click only lands on the visible part.
func Collider(sprite Rect, progress float64) Rect {
	h := VisibleRows(sprite.H, progress)
	return Rect{X: sprite.X, Y: sprite.Bottom() - h, W: sprite.W, H: h}
}

// VisibleRows is the number of sprite rows showing at progress, rounded to
// the nearest row.
func VisibleRows(height int, progress float64) int {
	return int(Lerp(0, float64(height), progress) + 0.5)
}
