// Package physics provides collision detection helpers.
package physics

// Rect is an axis-aligned box in logical playfield units.
// X, Y is the top-left corner; Y grows downwards.
type Rect struct {
	X, Y float64
	W, H float64
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.H
}

// Intersects reports whether two boxes overlap. Touching edges do not count.
func (r Rect) Intersects(other Rect) bool {
	if r.X >= other.Right() || other.X >= r.Right() {
		return false
	}
	if r.Y >= other.Bottom() || other.Y >= r.Bottom() {
		return false
	}
	return true
}

// ReachesTop reports whether r has dropped onto target from above: r's bottom
// is past target's top edge and the two overlap horizontally. Unlike
// Intersects it places no limit below target, so a box that is already under
// the target still counts.
func (r Rect) ReachesTop(target Rect) bool {
	return r.Bottom() > target.Y && r.X < target.Right() && r.Right() > target.X
}

// Clamp restricts v to [lo, hi]. If hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
