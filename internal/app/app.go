package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/ops"
	"github.com/vovakirdan/roomchat-server/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	cfg  config.Config
	chat *tcp.Server
	ops  *ops.Server
	log  *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	reg := core.NewRegistry(cfg.MaxRooms, cfg.RoomCapacity, logger)
	chat := tcp.NewServer(cfg, reg, logger)

	return &App{
		cfg:  cfg,
		chat: chat,
		ops:  ops.NewServer(cfg.OpsAddr, reg, chat, logger),
		log:  logger,
	}
}

// Run starts both listeners and blocks until context cancellation or a fatal
// listener error, then shuts everything down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	if err := a.chat.Start(ctx); err != nil {
		return err
	}

	opsErr := make(chan error, 1)
	go func() {
		if err := a.ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opsErr <- err
			return
		}
		opsErr <- nil
	}()

	select {
	case err := <-opsErr:
		a.chat.Stop()
		return err
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		a.chat.Stop()
		if err := a.ops.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-opsErr
	}
}
