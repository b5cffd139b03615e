package client

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/snackdrop/internal/game"
	"github.com/tomz197/snackdrop/internal/loop/config"
	"github.com/tomz197/snackdrop/internal/object"
)

// pollBarWidth is the width of a poll bar in cells.
const pollBarWidth = 20

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On screen, variant or inactivity transitions, do a full terminal clear
	// so UI elements from the previous state don't persist on screen.
	stateChanged := c.state.GameState != c.state.prevGameState
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	variantChanged := c.state.Variant != c.state.prevVariant
	if stateChanged || inactiveChanged || variantChanged {
		c.chunkWriter.Clear()
		c.canvas.ForceRedraw()
		c.state.prevGameState = c.state.GameState
		c.state.wasInactive = c.state.isInactive
		c.state.prevVariant = c.state.Variant
	}

	c.canvas.Clear()

	if c.game != nil && (c.state.GameState == GameStatePlaying || c.state.GameState == GameStateEnded) {
		theme := c.game.Theme()
		items := c.game.Items()
		for i := range items {
			shape := theme.Beneficial.Shape
			if items[i].Kind == object.Harmful {
				shape = theme.Harmful.Shape
			}
			object.DrawItem(c.canvas, &items[i], shape)
		}
		object.DrawPaddle(c.canvas, c.game.Paddle(), theme.Paddle.Shape)
	}
	c.state.Particles.Draw(c.canvas)

	// Render canvas to terminal
	c.canvas.Render(c.chunkWriter)

	// Draw border when terminal exceeds max render resolution
	c.canvas.RenderBorder(c.chunkWriter)

	// Draw UI overlay
	c.drawUI()

	return c.chunkWriter.Flush()
}

// drawUI draws the UI overlay.
func (c *Client) drawUI() {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.GameState == GameStateShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	switch c.state.GameState {
	case GameStatePlaying:
		c.drawPlayingHUD(termWidth, termHeight)
	case GameStateStart:
		c.drawStartScreen(centerX, centerY)
	case GameStateEnded:
		c.drawPlayingHUD(termWidth, termHeight)
		c.drawEndScreen(centerX, centerY)
	}

	if c.state.News != "" && c.state.GameState != GameStatePlaying {
		c.writeText(2, termHeight-1, c.style().Faint(true).Render(c.state.News))
	}
}

// style returns a new style bound to the client's renderer.
func (c *Client) style() lipgloss.Style {
	return c.renderer.NewStyle()
}

// accent returns the selected theme's highlight colour.
func (c *Client) accent() lipgloss.Color {
	return lipgloss.Color(c.theme().Paddle.Fill)
}

// writeText writes s at a canvas position and marks the cells it covers so
// the canvas repaints them next frame.
func (c *Client) writeText(col, row int, s string) {
	c.chunkWriter.WriteAt(col, row, s)
	c.canvas.MarkTextDirty(col, row, lipgloss.Width(s))
}

// writeCentered writes a multi-line block centred on (centerX, centerY).
func (c *Client) writeCentered(centerX, centerY int, block string) {
	width := lipgloss.Width(block)
	lines := strings.Split(block, "\n")
	col := centerX - width/2 + 1
	row := centerY - len(lines)/2 + 1
	for i, line := range lines {
		c.writeText(col, row+i, line)
	}
}

// panel wraps lines in the theme's bordered box.
func (c *Client) panel(lines ...string) string {
	return c.style().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.accent()).
		Padding(0, 2).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	remaining := int(config.InactivityDisconnectUser - time.Since(c.lastInput).Seconds())
	c.writeCentered(centerX, centerY, c.panel(
		c.style().Bold(true).Foreground(c.accent()).Render("INACTIVITY WARNING"),
		"",
		fmt.Sprintf("You will be disconnected in %d seconds.", remaining),
		"",
		"Press any key to continue",
	))
}

// drawStartScreen draws the variant picker and the poll.
func (c *Client) drawStartScreen(centerX, centerY int) {
	theme := c.theme()
	title := c.style().Bold(true).Foreground(c.accent()).Render(strings.ToUpper(theme.Title))

	var picker []string
	for i, t := range c.themes {
		label := " " + t.Title + " "
		if i == c.state.Variant {
			label = c.style().Reverse(true).Render(label)
		}
		picker = append(picker, label)
	}

	controls := []string{
		"Mouse / A D / < >  . .  Move",
		"< >  . . . . .  Pick a game",
		"1-" + fmt.Sprint(len(c.server.Choices())) + " . . . . . . . . Vote",
		"Q  . . . . . . . . . .  Quit",
	}

	lines := []string{
		title,
		theme.Tagline,
		"",
		strings.Join(picker, "  "),
		"",
	}
	lines = append(lines, controls...)
	lines = append(lines, "", c.pollView())

	prompt := ">>  Press SPACE to Start  <<"
	if time.Now().UnixMilli()/600%2 != 0 {
		prompt = strings.Repeat(" ", len(prompt))
	}
	lines = append(lines, "", prompt)

	c.writeCentered(centerX, centerY, c.panel(lines...))
}

// pollView renders the favourite-snack poll with one bar per choice.
func (c *Client) pollView() string {
	choices := c.server.Choices()
	rows := []string{c.style().Bold(true).Render("Which snack do you prefer?")}
	for i, ch := range choices {
		e, _ := c.state.Tally.Entry(ch.Key)
		rows = append(rows, fmt.Sprintf("%d) %-8s %s %3d%%", i+1, ch.Label, c.bar(e.Percent), e.Percent))
	}
	if c.state.VoteMsg != "" {
		rows = append(rows, c.style().Italic(true).Render(c.state.VoteMsg))
	} else if c.state.Tally.Total > 0 {
		rows = append(rows, fmt.Sprintf("%d votes", c.state.Tally.Total))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (c *Client) bar(percent int) string {
	filled := percent * pollBarWidth / 100
	return c.style().Foreground(c.accent()).Render(strings.Repeat("█", filled)) +
		c.style().Faint(true).Render(strings.Repeat("░", pollBarWidth-filled))
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawPlayingHUD(termWidth, termHeight int) {
	g := c.game
	bold := c.style().Bold(true)

	c.writeText(2, 1, bold.Render(fmt.Sprintf("SCORE: %-6d", g.Score())))

	high := fmt.Sprintf("HIGH SCORE: %-6d", g.HighScore())
	c.writeText(termWidth-len(high)-1, 1, bold.Foreground(c.accent()).Render(high))

	caught := fmt.Sprintf("%s: %-4d", strings.ToUpper(pluralize(g.Theme().Beneficial.Name)), g.Caught())
	c.writeText(2, termHeight, caught)

	title := g.Theme().Title
	c.writeText(termWidth-lipgloss.Width(title)-1, termHeight, c.style().Faint(true).Render(title))
}

// drawEndScreen draws the win or game over summary.
func (c *Client) drawEndScreen(centerX, centerY int) {
	res := c.game.LastResult()
	if res == nil {
		return
	}
	theme := c.game.Theme()

	var lines []string
	if res.Won() {
		lines = append(lines,
			c.style().Bold(true).Foreground(c.accent()).Render("YOU WIN!"),
			fmt.Sprintf("Final Score: %d", res.Score),
		)
	} else {
		lines = append(lines,
			c.style().Bold(true).Foreground(lipgloss.Color(theme.Harmful.Fill)).Render("GAME OVER"),
			fmt.Sprintf("You caught a %s!", theme.Harmful.Name),
			"",
			c.style().Bold(true).Render(res.Rank),
			fmt.Sprintf("Score: %d", res.Score),
		)
	}
	lines = append(lines, "", summaryTable(theme, res))
	if res.NewHighScore {
		lines = append(lines, "", c.style().Bold(true).Foreground(c.accent()).Render("NEW HIGH SCORE!"))
	}
	lines = append(lines, "", c.pollView(), "", "SPACE  Play again    ESC  Menu    Q  Quit")

	c.writeCentered(centerX, centerY, c.panel(lines...))
}

// summaryTable lists the session statistics.
func summaryTable(theme game.Theme, res *game.Result) string {
	rows := [][2]string{
		{capitalize(pluralize(theme.Beneficial.Name)) + " caught", fmt.Sprint(res.Caught)},
		{"Time", fmt.Sprintf("%ds", res.Seconds())},
		{"High score", fmt.Sprint(res.HighScore)},
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-18s %6s", r[0], r[1])
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// pluralize adds an "s" to an item name.
func pluralize(name string) string {
	if name == "" {
		return "items"
	}
	return name + "s"
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	remaining := int(c.state.shutdownTimer) + 1
	c.writeCentered(centerX, centerY, c.panel(
		c.style().Bold(true).Foreground(c.accent()).Render("SERVER SHUTTING DOWN"),
		"",
		"The server is restarting for maintenance.",
		"Please reconnect in a moment.",
		"",
		fmt.Sprintf("Disconnecting in %d seconds...", remaining),
		"",
		"Press Q to disconnect now",
	))
}
