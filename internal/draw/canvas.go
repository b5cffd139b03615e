// Package draw renders the playfield to a terminal.
package draw

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// Color is a palette index. Zero is transparent.
type Color uint8

// NoColor leaves a pixel empty.
const NoColor Color = 0

// dirtyColor never appears in a frame; it forces a cell to be repainted.
const dirtyColor Color = 255

// Canvas is a drawing buffer with 2x vertical resolution using half-block characters.
// Supports scaling from logical coordinates to actual terminal pixels.
type Canvas struct {
	termWidth      int     // Actual terminal columns
	termHeight     int     // Actual terminal rows
	subPixelHeight int     // termHeight * 2
	pixels         []Color // Flat slice: [y * termWidth + x]

	// Scaling from logical to pixel coordinates
	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// 0-based terminal offsets used to center the render area.
	offsetCol int
	offsetRow int

	renderer *lipgloss.Renderer
	palette  []lipgloss.Color    // palette[i-1] is Color(i)
	cells    map[[2]Color]string // Cached styled glyph per (top, bottom) pair

	prev  []Color // Pixels as of the last Render
	valid bool    // prev reflects the terminal

	// Reusable buffers to reduce allocations
	renderBuf       strings.Builder
	scaledBuf       []Point
	intersectionBuf []float64
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
// logicalWidth/Height define the coordinate space used by game objects.
// termWidth/Height are the actual terminal dimensions.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{cells: make(map[[2]Color]string)}
	c.Resize(termWidth, termHeight, logicalWidth, logicalHeight)
	return c
}

// Resize updates the canvas for new terminal and logical dimensions.
func (c *Canvas) Resize(termWidth, termHeight int, logicalWidth, logicalHeight float64) {
	if termWidth < 1 {
		termWidth = 1
	}
	if termHeight < 1 {
		termHeight = 1
	}
	subPixelHeight := termHeight * 2

	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.pixels = make([]Color, subPixelHeight*termWidth)
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = subPixelHeight
	}

	c.logicalWidth = logicalWidth
	c.logicalHeight = logicalHeight
	c.scaleX = float64(termWidth) / logicalWidth
	c.scaleY = float64(subPixelHeight) / logicalHeight
}

// SetPalette installs the colors drawn for Color(1)..Color(len(colors)).
// The renderer decides how colors are encoded; a nil renderer draws plain glyphs.
func (c *Canvas) SetPalette(r *lipgloss.Renderer, colors []lipgloss.Color) {
	c.renderer = r
	c.palette = append(c.palette[:0], colors...)
	clear(c.cells)
	c.valid = false
}

// SetOffset sets the column and row offset for centering the canvas.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// Clear resets all pixels in the canvas.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// setPixel sets a pixel at actual terminal coordinates (no scaling).
func (c *Canvas) setPixel(x, y int, col Color) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = col
	}
}

// SetFloat sets a pixel using float logical coordinates (applies scaling).
func (c *Canvas) SetFloat(x, y float64, col Color) {
	px := int(math.Floor(x * c.scaleX))
	py := int(math.Floor(y * c.scaleY))
	c.setPixel(px, py, col)
}

// FillRect fills an axis-aligned rectangle given in logical coordinates.
// Every pixel whose center lies inside the rectangle is set; a rectangle
// smaller than a pixel still sets the pixel under its center.
func (c *Canvas) FillRect(x, y, w, h float64, col Color) {
	x0 := int(math.Round(x * c.scaleX))
	y0 := int(math.Round(y * c.scaleY))
	x1 := int(math.Round((x + w) * c.scaleX))
	y1 := int(math.Round((y + h) * c.scaleY))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c.setPixel(px, py, col)
		}
	}
}

// StrokeRect draws a one-pixel outline around a logical rectangle.
func (c *Canvas) StrokeRect(x, y, w, h float64, col Color) {
	x0 := int(math.Round(x * c.scaleX))
	y0 := int(math.Round(y * c.scaleY))
	x1 := int(math.Round((x+w)*c.scaleX)) - 1
	y1 := int(math.Round((y+h)*c.scaleY)) - 1
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	for px := x0; px <= x1; px++ {
		c.setPixel(px, y0, col)
		c.setPixel(px, y1, col)
	}
	for py := y0; py <= y1; py++ {
		c.setPixel(x0, py, col)
		c.setPixel(x1, py, col)
	}
}

// FillCircle fills a circle given by its logical center and radius.
func (c *Canvas) FillCircle(cx, cy, r float64, col Color) {
	pts := make([]Point, 0, 16)
	for i := 0; i < 16; i++ {
		a := float64(i) / 16 * 2 * math.Pi
		pts = append(pts, Point{X: cx + math.Cos(a)*r, Y: cy + math.Sin(a)*r})
	}
	c.FillPolygon(pts, col)
	c.SetFloat(cx, cy, col)
}

// FillPolygon fills a polygon using scanline algorithm.
// Works in pixel space for proper scaling.
func (c *Canvas) FillPolygon(points []Point, col Color) {
	if len(points) < 3 {
		return
	}

	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]
	for i, p := range points {
		scaled[i] = Point{X: p.X * c.scaleX, Y: p.Y * c.scaleY}
	}

	minY, maxY := scaled[0].Y, scaled[0].Y
	for _, p := range scaled {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	yStart := int(math.Floor(minY))
	yEnd := int(math.Ceil(maxY))

	for y := yStart; y <= yEnd; y++ {
		scanY := float64(y) + 0.5
		intersections := c.intersectionBuf[:0]

		n := len(scaled)
		for i := 0; i < n; i++ {
			p1 := scaled[i]
			p2 := scaled[(i+1)%n]
			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				intersections = append(intersections, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = intersections

		sort.Float64s(intersections)
		for i := 0; i+1 < len(intersections); i += 2 {
			xStart := int(math.Ceil(intersections[i] - 0.5))
			xEnd := int(math.Floor(intersections[i+1] - 0.5))
			for x := xStart; x <= xEnd; x++ {
				c.setPixel(x, y, col)
			}
		}
	}
}

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// Render outputs the canvas to the writer using half-block characters.
// Only cells that changed since the previous Render are written; empty cells
// are written as spaces so they erase what was there.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()
	c.renderBuf.Grow(c.termWidth * c.termHeight * 4)

	if len(c.prev) != len(c.pixels) {
		c.prev = make([]Color, len(c.pixels))
		c.valid = false
	}

	for row := 0; row < c.termHeight; row++ {
		topOffset := row * 2 * c.termWidth
		bottomOffset := (row*2 + 1) * c.termWidth
		nextCol := -1 // Column the cursor sits at after the last write

		for col := 0; col < c.termWidth; col++ {
			top := c.pixels[topOffset+col]
			bottom := c.pixels[bottomOffset+col]
			if c.valid && c.prev[topOffset+col] == top && c.prev[bottomOffset+col] == bottom {
				continue
			}
			if col != nextCol {
				fmt.Fprintf(&c.renderBuf, "\033[%d;%dH", row+1+c.offsetRow, col+1+c.offsetCol)
			}
			if top == NoColor && bottom == NoColor {
				c.renderBuf.WriteByte(' ')
			} else {
				c.renderBuf.WriteString(c.cell(top, bottom))
			}
			nextCol = col + 1
		}
	}
	copy(c.prev, c.pixels)
	c.valid = true

	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		io.WriteString(w, chunk)
		data = data[len(chunk):]
	}
}

// ForceRedraw makes the next Render write every cell.
func (c *Canvas) ForceRedraw() {
	c.valid = false
}

// MarkTextDirty makes the next Render repaint width cells starting at the
// 1-based canvas position (col, row), e.g. after text was written over them.
func (c *Canvas) MarkTextDirty(col, row, width int) {
	if row < 1 || row > c.termHeight || len(c.prev) != len(c.pixels) {
		return
	}
	top := (row - 1) * 2 * c.termWidth
	for x := col - 1; x < col-1+width; x++ {
		if x < 0 || x >= c.termWidth {
			continue
		}
		c.prev[top+x] = dirtyColor
	}
}

// cell returns the styled glyph for a terminal cell made of two sub-pixels.
func (c *Canvas) cell(top, bottom Color) string {
	key := [2]Color{top, bottom}
	if s, ok := c.cells[key]; ok {
		return s
	}

	var glyph rune
	switch {
	case top != NoColor && bottom != NoColor:
		glyph = BlockFull
		if top != bottom {
			glyph = BlockUpperHalf
		}
	case top != NoColor:
		glyph = BlockUpperHalf
	default:
		glyph = BlockLowerHalf
	}

	s := string(glyph)
	if c.renderer != nil {
		style := c.renderer.NewStyle()
		switch glyph {
		case BlockLowerHalf:
			style = style.Foreground(c.color(bottom))
		case BlockUpperHalf:
			style = style.Foreground(c.color(top))
			if bottom != NoColor {
				style = style.Background(c.color(bottom))
			}
		default:
			style = style.Foreground(c.color(top))
		}
		s = style.Render(s)
	}
	c.cells[key] = s
	return s
}

func (c *Canvas) color(col Color) lipgloss.Color {
	idx := int(col) - 1
	if idx < 0 || idx >= len(c.palette) {
		return lipgloss.Color("")
	}
	return c.palette[idx]
}

// RenderBorder draws a box border around the canvas area when the terminal
// exceeds the max render resolution on either axis.
func (c *Canvas) RenderBorder(w io.Writer) {
	hasH := c.offsetCol >= 1
	hasV := c.offsetRow >= 1

	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1

	var buf strings.Builder
	if hasV {
		if hasH {
			fmt.Fprintf(&buf, "\033[%d;%dH┌%s┐", top, left, strings.Repeat("─", c.termWidth))
			fmt.Fprintf(&buf, "\033[%d;%dH└%s┘", bottom, left, strings.Repeat("─", c.termWidth))
		} else {
			fmt.Fprintf(&buf, "\033[%d;%dH%s", top, c.offsetCol+1, strings.Repeat("─", c.termWidth))
			fmt.Fprintf(&buf, "\033[%d;%dH%s", bottom, c.offsetCol+1, strings.Repeat("─", c.termWidth))
		}
	}
	if hasH {
		for row := c.offsetRow + 1; row <= c.offsetRow+c.termHeight; row++ {
			fmt.Fprintf(&buf, "\033[%d;%dH│\033[%d;%dH│", row, left, row, right)
		}
	}
	io.WriteString(w, buf.String())
}

// LogicalWidth returns the logical width of the playfield.
func (c *Canvas) LogicalWidth() float64 {
	return c.logicalWidth
}

// LogicalHeight returns the logical height of the playfield.
func (c *Canvas) LogicalHeight() float64 {
	return c.logicalHeight
}

// TerminalWidth returns the rendered column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the rendered row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// LogicalToTerminal converts logical coordinates to a 1-based terminal position
// (col, row) relative to the canvas, without the centering offset.
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	px := int(math.Floor(x * c.scaleX))
	py := int(math.Floor(y * c.scaleY))
	return px + 1, py/2 + 1
}

// TerminalToLogical converts an absolute 1-based terminal column to the
// logical x at the center of that column. Columns outside the canvas map
// outside [0, LogicalWidth].
func (c *Canvas) TerminalToLogical(col int) float64 {
	px := float64(col-1-c.offsetCol) + 0.5
	return px / c.scaleX
}
