// Package ops serves the operational HTTP surface: health, metrics and a
// read-only view of the room registry. It is separate from the chat listener
// so operators can firewall it independently.
package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/core"
)

// SessionCounter reports how many chat sessions are currently admitted.
type SessionCounter interface {
	ActiveSessions() int64
}

// NewRouter builds the ops routes against the live registry.
func NewRouter(reg *core.Registry, sessions SessionCounter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": sessions.ActiveSessions(),
			"rooms":    reg.Count(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/debug/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rooms":    reg.Snapshot(),
			"capacity": reg.RoomCapacity(),
			"max":      reg.MaxRooms(),
		})
	})

	return r
}

// Server wraps the ops HTTP listener.
type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

func NewServer(addr string, reg *core.Registry, sessions SessionCounter, logger *zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(reg, sessions),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger,
	}
}

// Start serves until Shutdown; it returns http.ErrServerClosed on a clean
// stop, which callers should swallow.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("ops server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
