// Package client runs one terminal connection: input, the player's game and
// drawing, at a fixed frame rate.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"

	"github.com/tomz197/snackdrop/internal/draw"
	"github.com/tomz197/snackdrop/internal/game"
	"github.com/tomz197/snackdrop/internal/input"
	"github.com/tomz197/snackdrop/internal/loop/config"
	"github.com/tomz197/snackdrop/internal/loop/server"
	"github.com/tomz197/snackdrop/internal/poll"
)

// newsSeconds is how long another player's result stays on screen.
const newsSeconds = 6.0

// Client handles rendering and input for a single connection.
type Client struct {
	ctx          context.Context
	server       server.GameServer
	handle       *server.ClientHandle
	state        *ClientState
	themes       []game.Theme
	games        map[string]*game.Game // One per variant, created on first play
	game         *game.Game            // Game of the selected variant, nil before first play
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	renderer     *lipgloss.Renderer
	rng          *rand.Rand
	lastInput    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	// Variant preselects a theme by key; unknown keys fall back to the first theme.
	Variant string
	// ColorProfile limits the colours sent to the terminal. The zero value is true colour.
	ColorProfile termenv.Profile
}

// NewClient creates a new client connected to the given server.
func NewClient(ctx context.Context, gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	handle := gs.RegisterClient(opts.Username)
	state := NewClientState()
	state.termSizeFunc = termSizeFunc

	themes := gs.Themes()
	for i, t := range themes {
		if strings.EqualFold(t.Key, opts.Variant) {
			state.Variant = i
		}
	}
	if tally, err := gs.Tally(ctx); err == nil {
		state.Tally = tally
	} else {
		log.Warn().Err(err).Int("client_id", handle.ID).Msg("failed to read poll")
	}

	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(opts.ColorProfile)

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := draw.TerminalSizeRawWith(termSizeFunc)
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	logicalWidth, logicalHeight := logicalSize(renderWidth, renderHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, logicalWidth, logicalHeight)
	canvas.SetOffset(offsetCol, offsetRow)
	chunkWriter := draw.NewChunkWriter(w, offsetCol, offsetRow)

	c := &Client{
		ctx:          ctx,
		server:       gs,
		handle:       handle,
		state:        state,
		themes:       themes,
		games:        make(map[string]*game.Game),
		canvas:       canvas,
		chunkWriter:  chunkWriter,
		writer:       w,
		inputStream:  input.StartStream(r),
		renderer:     renderer,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		lastInput:    time.Now(),
		username:     opts.Username,
		termSizeFunc: termSizeFunc,
	}
	c.applyPalette()
	return c
}

// Run starts the client loop. Blocks until the client disconnects, the
// context is cancelled or the server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	draw.EnableMouse(c.writer)
	defer draw.ShowCursor(c.writer)
	defer draw.DisableMouse(c.writer)
	draw.ClearScreen(c.writer)

	// Unregister from server
	defer c.server.UnregisterClient(c.handle.ID)
	defer c.stopGames()

	lastTime := time.Now()

	for c.state.Running {
		if c.ctx.Err() != nil {
			break
		}
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		// Process input
		c.processInput()

		// Check for server events
		c.processServerEvents()

		// Handle screen resize
		c.updateScreen()

		// Handle game state
		switch c.state.GameState {
		case GameStateStart:
			c.updateStartState()
		case GameStatePlaying:
			c.updatePlayingState()
		case GameStateEnded:
			c.updateEndedState()
		case GameStateShutdown:
			c.updateShutdownState()
		}
		c.updateEffects()

		// Draw frame
		if err := c.drawFrame(); err != nil {
			return err
		}
		c.state.prevInput = c.state.Input

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads input and applies pointer movement.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)

	if len(c.state.Input.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if c.state.Input.Quit {
		c.state.Running = false
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventServerShutdown:
				c.state.GameState = GameStateShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
				c.stopGames()
			case server.EventTallyUpdated:
				c.state.Tally = event.Tally
			case server.EventPlayerResult:
				c.showNews(event)
			}
		default:
			return
		}
	}
}

func (c *Client) showNews(event server.ClientEvent) {
	res := event.Result.Result
	if c.game != nil && res.SessionID == c.game.SessionID() {
		return
	}
	title := res.Variant
	if t, err := game.FindTheme(c.themes, res.Variant); err == nil {
		title = t.Title
	}
	verb := "scored"
	if res.Won() {
		verb = "won with"
	}
	name := event.Result.Player
	if name == "" {
		name = "someone"
	}
	c.state.News = fmt.Sprintf("%s %s %d in %s", name, verb, res.Score, title)
	c.state.newsTTL = newsSeconds
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight, err := draw.TerminalSizeRawWith(c.termSizeFunc)
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
	}

	logicalWidth, logicalHeight := logicalSize(renderWidth, renderHeight)
	c.canvas.Resize(renderWidth, renderHeight, logicalWidth, logicalHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
	for _, g := range c.games {
		g.Resize(logicalWidth, logicalHeight)
	}
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = termWidth
	renderHeight = termHeight
	if renderWidth > config.MaxTermWidth {
		renderWidth = config.MaxTermWidth
	}
	if renderHeight > config.MaxTermHeight {
		renderHeight = config.MaxTermHeight
	}
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// logicalSize is the playfield measured in game units for a render area.
func logicalSize(renderWidth, renderHeight int) (width, height float64) {
	return float64(renderWidth) * config.UnitsPerColumn, float64(renderHeight) * 2 * config.UnitsPerSubRow
}

// updateStartState handles the variant picker.
func (c *Client) updateStartState() {
	left, right, start := c.state.pressed()
	c.pickVariant(left, right)
	c.handleVote()
	if start {
		c.startGame()
	}
}

// updatePlayingState moves the paddle and advances the game by one frame.
func (c *Client) updatePlayingState() {
	g := c.game
	in := c.state.Input

	if in.PointerCol > 0 {
		g.PointTo(c.canvas.TerminalToLogical(in.PointerCol))
	}
	if in.Left {
		g.Nudge(-config.PaddleKeyStep)
	}
	if in.Right {
		g.Nudge(config.PaddleKeyStep)
	}

	caught := g.Caught()
	res := g.Frame(c.ctx)
	if g.Caught() > caught {
		p := g.Paddle()
		c.state.Particles.Burst(p.CenterX(), p.Y, config.CatchBurstParticles,
			config.CatchBurstSpeed, config.CatchBurstLifetime, c.rng)
	}
	if res != nil {
		c.server.RecordResult(c.ctx, c.handle, res)
		input.ResetKeyInput(c.inputStream)
		c.state.GameState = GameStateEnded
	}
}

// updateEndedState handles the summary screen.
func (c *Client) updateEndedState() {
	left, right, start := c.state.pressed()
	c.handleVote()
	if c.state.Input.Escape && !c.state.prevInput.Escape {
		c.state.GameState = GameStateStart
		return
	}
	if left || right {
		c.pickVariant(left, right)
		c.state.GameState = GameStateStart
		return
	}
	if start {
		c.startGame()
	}
}

func (c *Client) pickVariant(left, right bool) {
	n := len(c.themes)
	switch {
	case left:
		c.state.Variant = (c.state.Variant + n - 1) % n
	case right:
		c.state.Variant = (c.state.Variant + 1) % n
	default:
		return
	}
	c.applyPalette()
}

// handleVote casts the connection's single vote on a number key press.
func (c *Client) handleVote() {
	in := c.state.Input
	if in.Number < 1 || in.Number == c.state.prevInput.Number {
		return
	}
	choices := c.server.Choices()
	if in.Number > len(choices) {
		return
	}
	choice := choices[in.Number-1]

	tally, err := c.handle.Ballot.Cast(c.ctx, c.server, choice.Key)
	switch {
	case errors.Is(err, poll.ErrAlreadyVoted):
		c.state.VoteMsg = "You already voted."
	case err != nil:
		log.Error().Err(err).Int("client_id", c.handle.ID).Msg("vote failed")
		c.state.VoteMsg = "Vote failed, try again."
	default:
		c.state.Tally = tally
		c.state.VoteMsg = fmt.Sprintf("Thanks for voting for %s!", choice.Label)
	}
}

// startGame starts or restarts the selected variant.
func (c *Client) startGame() {
	input.ResetKeyInput(c.inputStream)

	theme := c.themes[c.state.Variant]
	g, ok := c.games[theme.Key]
	if !ok {
		var err error
		g, err = c.server.NewGame(c.ctx, c.handle, theme.Key)
		if err != nil {
			log.Error().Err(err).Int("client_id", c.handle.ID).Str("variant", theme.Key).Msg("failed to create game")
			return
		}
		c.games[theme.Key] = g
	}
	g.Resize(c.canvas.LogicalWidth(), c.canvas.LogicalHeight())

	c.game = g
	c.state.Particles.Reset()
	g.Start()
	g.PointTo(c.canvas.LogicalWidth() / 2)
	c.state.GameState = GameStatePlaying
}

func (c *Client) stopGames() {
	for _, g := range c.games {
		g.Stop()
	}
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}

// updateEffects ages particles and the news line.
func (c *Client) updateEffects() {
	dt := c.state.delta.Seconds()
	c.state.Particles.Update(dt)
	if c.state.newsTTL > 0 {
		c.state.newsTTL -= dt
		if c.state.newsTTL <= 0 {
			c.state.News = ""
		}
	}
}

// applyPalette installs the selected theme's colours on the canvas.
func (c *Client) applyPalette() {
	colors := c.themes[c.state.Variant].Colors()
	palette := make([]lipgloss.Color, len(colors))
	for i, col := range colors {
		palette[i] = lipgloss.Color(col)
	}
	c.canvas.SetPalette(c.renderer, palette)
}

// theme returns the selected theme.
func (c *Client) theme() game.Theme {
	return c.themes[c.state.Variant]
}
