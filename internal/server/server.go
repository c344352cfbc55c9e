package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterConfig wires the collaborators behind each route
// Recent is optional; /searches is only registered when it is set
type RouterConfig struct {
	Queries        QueryHandler
	Stats          StatsSource
	Recent         RecentSearches
	AllowedOrigins []string
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.Use(CORS(cfg.AllowedOrigins))

	h := &handlers{queries: cfg.Queries, stats: cfg.Stats, recent: cfg.Recent}

	router.GET("/health", h.health)
	router.POST("/paths", h.paths)
	router.GET("/stats", h.statsSnapshot)
	if cfg.Recent != nil {
		router.GET("/searches", h.recentSearches)
	}

	return router
}

// Server runs the API until shut down
type Server struct {
	httpServer *http.Server
}

// New wraps the router in an http.Server listening on addr
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves in the background; listen errors are sent on the returned channel
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown waits for in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
