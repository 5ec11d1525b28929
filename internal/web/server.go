// Package web serves the interaction shell as an HTML page and a small JSON
// API. All analyses run one at a time. Each form submission gets its own
// shell, so one visitor never sees another visitor's note or report.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crimson-sun/clinote/internal/engine"
	"github.com/crimson-sun/clinote/internal/engine/labelmap"
	"github.com/crimson-sun/clinote/internal/model"
	"github.com/crimson-sun/clinote/internal/report"
	"github.com/crimson-sun/clinote/internal/shell"
)

// Analyzer is what the server needs from the inference engine.
type Analyzer interface {
	shell.Analyzer
	Labels() []string
}

// Server holds the analyzer and the gin router.
type Server struct {
	mu       sync.Mutex // serializes inference
	analyzer Analyzer
	modelID  string
	router   *gin.Engine
}

// New creates a Server. modelID is shown on the page and in /healthz.
func New(a Analyzer, modelID string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{analyzer: a, modelID: modelID}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(page)

	r.GET("/", s.index)
	r.POST("/analyze", s.analyzeForm)
	r.GET("/healthz", s.healthz)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/analyze", s.analyzeJSON)
		v1.GET("/labels", s.labels)
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler, for tests and custom servers.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web ui listening", "addr", addr, "model", s.modelID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index", pageData{Input: shell.DefaultInput, Model: s.modelID})
}

func (s *Server) analyzeForm(c *gin.Context) {
	text := c.PostForm("text")

	area := &shell.Area{}
	sh := shell.New(s.analyzer, area)
	sh.SetInput(text)

	s.mu.Lock()
	err := sh.Trigger()
	s.mu.Unlock()
	data := pageData{Input: sh.Input(), Output: area.Content(), Model: s.modelID}

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		data.Error = err.Error()
		slog.Warn("analysis failed", "error", err, "input_len", len(text))
	}
	c.HTML(status, "index", data)
}

type analyzeRequest struct {
	Text string `json:"text" binding:"required"`
}

type analyzeResponse struct {
	model.Analysis
	Report string `json:"report"`
}

func (s *Server) analyzeJSON(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	s.mu.Lock()
	a, err := s.analyzer.Analyze(req.Text)
	s.mu.Unlock()
	if err != nil {
		slog.Warn("analysis failed", "error", err, "input_len", len(req.Text))
		c.IndentedJSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, analyzeResponse{Analysis: a, Report: report.Format(a)})
}

func (s *Server) labels(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"model":   s.analyzer.Labels(),
		"mapping": labelmap.Entries(),
	})
}

func (s *Server) healthz(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok", "model": s.modelID})
}

func statusFor(err error) int {
	if errors.Is(err, engine.ErrEmptyInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
