// Package object holds the playfield entities and how they are drawn.
package object

import (
	"fmt"

	"github.com/tomz197/snackdrop/internal/draw"
	"github.com/tomz197/snackdrop/internal/loop/config"
	"github.com/tomz197/snackdrop/internal/physics"
)

// Kind tells whether catching an item scores or ends the session.
type Kind int

const (
	Beneficial Kind = iota
	Harmful
)

func (k Kind) String() string {
	switch k {
	case Beneficial:
		return "beneficial"
	case Harmful:
		return "harmful"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Palette slots used by the drawing functions. Clients install colours for
// them in this order with Canvas.SetPalette.
const (
	ColorPaddle draw.Color = iota + 1
	ColorPaddleAccent
	ColorPaddleDetail
	ColorBeneficial
	ColorBeneficialAccent
	ColorBeneficialDetail
	ColorHarmful
	ColorHarmfulAccent
	ColorHarmfulDetail
	ColorBurst

	PaletteSize = int(ColorBurst)
)

// Item is a falling snack.
type Item struct {
	X, Y  float64 // Top-left corner
	Speed float64 // Units per frame, fixed at spawn
	Kind  Kind
}

// Fall advances the item by one frame.
func (it *Item) Fall() {
	it.Y += it.Speed
}

// Hitbox is the fixed square used for paddle collisions, regardless of the drawn shape.
func (it *Item) Hitbox() physics.Rect {
	return physics.Rect{X: it.X, Y: it.Y, W: config.ItemCollisionSize, H: config.ItemCollisionSize}
}

// Paddle is the player's catcher.
type Paddle struct {
	X, Y float64
	W, H float64
}

// NewPaddle returns a paddle sized for play.
func NewPaddle() Paddle {
	return Paddle{W: config.PaddleWidth, H: config.PaddleHeight}
}

// Rect returns the paddle bounds.
func (p Paddle) Rect() physics.Rect {
	return physics.Rect{X: p.X, Y: p.Y, W: p.W, H: p.H}
}

// CenterX returns the horizontal center of the paddle.
func (p Paddle) CenterX() float64 {
	return p.X + p.W/2
}
