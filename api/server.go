// Package api serves the HTTP remote control for the installation
package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lightful/debug"
	"lightful/engine"
	"lightful/midi"
	"lightful/sequencer"
)

// Controller is the part of the engine the API drives
type Controller interface {
	Status() engine.Status
	StartLooper() error
	StopLooper() error
	Action(ch uint8, action string) error
	WriteLoop(ch uint8) (string, error)
	LoadLoop(ch uint8, filename string) error
	Inject(evt midi.Event) error
	Blackout() error
	ResetLights() error
}

type Server struct {
	ctrl   Controller
	router *gin.Engine
}

// NoteRequest injects a virtual note. Channel 0 means the live channel;
// velocity 0 on a note-on means 100.
type NoteRequest struct {
	Channel  uint8 `json:"channel" binding:"max=16"`
	Note     uint8 `json:"note" binding:"max=127"`
	Velocity uint8 `json:"velocity" binding:"max=127"`
	Off      bool  `json:"off"`
}

type LoadRequest struct {
	File string `json:"file"` // empty loads the newest save
}

func NewServer(ctrl Controller) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), corsMiddleware())

	s := &Server{ctrl: ctrl, router: r}

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.health)
		v1.GET("/status", s.status)
		v1.GET("/saves", s.saves)
		v1.POST("/looper/start", s.start)
		v1.POST("/looper/stop", s.stop)
		v1.POST("/looper/:channel/:action", s.action)
		v1.POST("/notes", s.note)
		v1.POST("/lights/blackout", s.blackout)
		v1.POST("/lights/reset", s.reset)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	debug.Info("api", "listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		debug.Log("api", "%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// errorStatus maps engine errors onto HTTP codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, sequencer.ErrInvalidChannel), errors.Is(err, engine.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, sequencer.ErrNoLoop), errors.Is(err, sequencer.ErrNotRecording), errors.Is(err, sequencer.ErrRecording), errors.Is(err, sequencer.ErrLoopTooLong):
		return http.StatusConflict
	case errors.Is(err, sequencer.ErrNoSaves), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotRunning):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

// respond writes the fresh status, or the error
func (s *Server) respond(c *gin.Context, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.ctrl.Status())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "lightful",
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Status())
}

func (s *Server) saves(c *gin.Context) {
	saves, err := sequencer.ListSaves(s.ctrl.Status().Project)
	if err != nil {
		fail(c, err)
		return
	}
	if saves == nil {
		saves = []sequencer.SaveInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"saves": saves})
}

func (s *Server) start(c *gin.Context) {
	s.respond(c, s.ctrl.StartLooper())
}

func (s *Server) stop(c *gin.Context) {
	s.respond(c, s.ctrl.StopLooper())
}

func (s *Server) action(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("channel"))
	if err != nil || n <= int(midi.LiveChannel) || n > 16 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel must be 2-16"})
		return
	}
	ch := uint8(n)

	switch action := c.Param("action"); action {
	case "write":
		name, err := s.ctrl.WriteLoop(ch)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"file": name})
	case "load":
		var req LoadRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		s.respond(c, s.ctrl.LoadLoop(ch, req.File))
	default:
		s.respond(c, s.ctrl.Action(ch, action))
	}
}

func (s *Server) note(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch := req.Channel
	if ch == 0 {
		ch = midi.LiveChannel
	}
	evt := midi.NoteOffEvent(ch, req.Note)
	if !req.Off {
		vel := req.Velocity
		if vel == 0 {
			vel = 100
		}
		evt = midi.NoteOnEvent(ch, req.Note, vel)
	}

	if err := s.ctrl.Inject(evt); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"event": evt.String()})
}

func (s *Server) blackout(c *gin.Context) {
	s.respond(c, s.ctrl.Blackout())
}

func (s *Server) reset(c *gin.Context) {
	s.respond(c, s.ctrl.ResetLights())
}
