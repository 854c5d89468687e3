// Package server exposes the pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vasha-ai/vasha/internal/config"
	"github.com/vasha-ai/vasha/internal/pipeline"
)

// Runner abstracts the pipeline coordinator so handlers can be tested with
// fakes.
type Runner interface {
	Run(ctx context.Context, mediaPath string, opts pipeline.Options) (*pipeline.Session, error)
}

type Server struct {
	cfg    config.ServerConfig
	runner Runner
	srv    *http.Server
}

func New(cfg config.ServerConfig, runner Runner) *Server {
	s := &Server{
		cfg:    cfg,
		runner: runner,
	}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = int64(s.cfg.MaxUploadMB) << 20

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/transcribe_translate", s.handleTranscribeTranslate)
	r.GET("/stream_audio", s.handleStream)

	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"message":           "vasha backend ready",
		"websocket_enabled": true,
	})
}
