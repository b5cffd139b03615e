// Package web serves the landing page and the favourite-snack poll over HTTP.
package web

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/tomz197/snackdrop/internal/bus"
	"github.com/tomz197/snackdrop/internal/loop/server"
	"github.com/tomz197/snackdrop/internal/poll"
)

//go:embed index.html
var indexPage string

// Backend is what the web API reads from and votes through.
type Backend interface {
	Choices() []poll.Choice
	Tally(ctx context.Context) (poll.Tally, error)
	CastVote(ctx context.Context, choice string) (poll.Tally, error)
	HighScores(ctx context.Context) ([]server.HighScore, error)
	Recent() []bus.ResultEvent
	SubscribeTally(fn func(poll.Tally)) (func(), error)
}

var _ Backend = (*server.Server)(nil)

// Server is the HTTP front end.
type Server struct {
	backend Backend
	sshHost string
	hub     *pollHub
	unsub   func()
}

type voteRequest struct {
	Choice string `json:"choice" binding:"required"`
}

// New creates the web server and subscribes it to tally updates.
func New(backend Backend, sshHost string) (*Server, error) {
	s := &Server{
		backend: backend,
		sshHost: sshHost,
		hub:     newPollHub(DefaultConnectionConfig()),
	}
	unsub, err := backend.SubscribeTally(s.hub.Broadcast)
	if err != nil {
		return nil, err
	}
	s.unsub = unsub
	return s, nil
}

// Close stops tally updates and drops websocket connections.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.hub.CloseAll()
}

// Handler returns the router wrapped in CORS.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.GET("/poll", s.handlePoll)
	api.POST("/poll/votes", s.handleVote)
	api.GET("/highscores", s.handleHighScores)
	api.GET("/results", s.handleResults)

	r.GET("/ws/poll", s.handlePollWebsocket)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func (s *Server) handleIndex(c *gin.Context) {
	page := strings.ReplaceAll(indexPage, "{{.SSHHost}}", s.sshHost)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePoll(c *gin.Context) {
	t, err := s.backend.Tally(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read poll")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "poll unavailable"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "choice is required"})
		return
	}
	t, err := s.backend.CastVote(c.Request.Context(), req.Choice)
	switch {
	case errors.Is(err, poll.ErrUnknownChoice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.Error().Err(err).Str("choice", req.Choice).Msg("failed to record vote")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vote not recorded"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleHighScores(c *gin.Context) {
	scores, err := s.backend.HighScores(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read high scores")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "high scores unavailable"})
		return
	}
	c.JSON(http.StatusOK, scores)
}

func (s *Server) handleResults(c *gin.Context) {
	c.JSON(http.StatusOK, s.backend.Recent())
}

func (s *Server) handlePollWebsocket(c *gin.Context) {
	t, err := s.backend.Tally(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "poll unavailable"})
		return
	}
	s.hub.Upgrade(c.Writer, c.Request, t)
}

// requestLogger logs every request through zerolog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
