package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"granville/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the payload served on GET /status.
type Status struct {
	Version       string            `json:"version"`
	Driver        string            `json:"driver"`
	DriverVersion string            `json:"driver_version"`
	Models        int               `json:"models"`
	Workers       int               `json:"workers"`
	UnrankedDepth int               `json:"unranked_depth"`
	RankedDepth   int               `json:"ranked_depth"`
	Active        map[uint64]uint32 `json:"active_requests"`
	UptimeSeconds int64             `json:"uptime_seconds"`
}

// Server is the optional HTTP status endpoint.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the status server on port. status is called per request.
func NewServer(port int, status func() Status) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, status())
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		logger.Infof("status endpoint listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("status endpoint failed: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
