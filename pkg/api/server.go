// Package api is the read-only HTTP surface over the Scheduler's query
// API, plus the one trigger endpoint that runs the Transcript Analyzer
// and schedules its recommendations, and a lookup for the analysis it
// persisted.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/analyzer"
	"github.com/chriscow/postop-callsvc/pkg/atomicstore"
	"github.com/chriscow/postop-callsvc/pkg/queue"
	"github.com/chriscow/postop-callsvc/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// Server is the HTTP API server: one struct wrapping a gin.Engine, a
// constructor that registers routes, a thin Run.
type Server struct {
	router    *gin.Engine
	scheduler *scheduler.Scheduler
	analyzer  *analyzer.Analyzer
	store     *atomicstore.Store
	pool      *queue.Pool // nil in api-only mode with no local pool
}

// NewServer constructs a Server and registers its routes.
func NewServer(sched *scheduler.Scheduler, an *analyzer.Analyzer, store *atomicstore.Store, pool *queue.Pool) *Server {
	s := &Server{
		router:    gin.Default(),
		scheduler: sched,
		analyzer:  an,
		store:     store,
		pool:      pool,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/calls", s.listCallsHandler)
	s.router.GET("/calls/:id", s.getCallHandler)
	s.router.GET("/patients/:id/calls", s.patientCallsHandler)
	s.router.POST("/discharge-sessions/:id/analyze", s.analyzeSessionHandler)
	s.router.GET("/discharge-sessions/:id/analysis", s.getAnalysisHandler)
}

// Handler exposes the underlying http.Handler for use with http.Server
// (so callers can control listener lifecycle, TLS, timeouts, etc.).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server on addr (blocking), matching gin's own
// Run convenience method.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func withTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
