package object

import (
	"math"

	"github.com/tomz197/snackdrop/internal/draw"
)

// Shape names a drawing routine for an item or paddle.
type Shape string

const (
	ShapeBar     Shape = "bar"     // Flat stick
	ShapeRoll    Shape = "roll"    // Wrapped roll with a filling
	ShapeDiamond Shape = "diamond" // Pointed pod
	ShapeOrb     Shape = "orb"     // Ball with a highlight
	ShapeFace    Shape = "face"    // Block with a smiling face
)

// Valid reports whether s has a drawing routine.
func (s Shape) Valid() bool {
	switch s {
	case ShapeBar, ShapeRoll, ShapeDiamond, ShapeOrb, ShapeFace:
		return true
	}
	return false
}

// slots maps a base palette slot to its accent and detail slots.
func slots(base draw.Color) (fill, accent, detail draw.Color) {
	return base, base + 1, base + 2
}

// DrawItem draws it with the given shape in its kind's colours.
func DrawItem(c *draw.Canvas, it *Item, shape Shape) {
	base := ColorBeneficial
	if it.Kind == Harmful {
		base = ColorHarmful
	}
	drawShape(c, shape, it.X, it.Y, base)
}

// DrawPaddle draws the paddle with the given shape.
func DrawPaddle(c *draw.Canvas, p Paddle, shape Shape) {
	fill, accent, detail := slots(ColorPaddle)
	switch shape {
	case ShapeFace:
		c.FillRect(p.X, p.Y, p.W, p.H, fill)
		c.StrokeRect(p.X, p.Y, p.W, p.H, accent)
		// Eyes and smile
		c.FillRect(p.X+12, p.Y+15, 5, 5, detail)
		c.FillRect(p.X+38, p.Y+15, 5, 5, detail)
		for a := 0.2 * math.Pi; a <= 0.8*math.Pi; a += 0.1 * math.Pi {
			c.SetFloat(p.X+27+math.Cos(a)*8, p.Y+35+math.Sin(a)*8, detail)
		}
	default:
		c.FillRect(p.X, p.Y, p.W, p.H, fill)
		c.StrokeRect(p.X, p.Y, p.W, p.H, accent)
	}
}

func drawShape(c *draw.Canvas, shape Shape, x, y float64, base draw.Color) {
	fill, accent, detail := slots(base)
	switch shape {
	case ShapeBar:
		c.FillRect(x, y, 25, 10, fill)
	case ShapeRoll:
		c.FillRect(x, y, 25, 12, fill)
		c.FillRect(x+2, y+2, 21, 8, accent)
		c.FillRect(x+8, y+4, 10, 4, detail)
	case ShapeDiamond:
		c.FillPolygon([]draw.Point{
			{X: x + 10, Y: y},
			{X: x + 18, Y: y + 15},
			{X: x + 10, Y: y + 25},
			{X: x + 2, Y: y + 15},
		}, fill)
	case ShapeOrb:
		c.FillCircle(x+12, y+12, 12, fill)
		c.FillCircle(x+10, y+10, 4, accent)
	default:
		c.FillRect(x, y, 20, 20, fill)
	}
}
