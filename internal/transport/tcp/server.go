package tcp

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
)

// Server accepts raw TCP connections and spreads them over a fixed pool of
// workers. Each worker owns its sessions for their whole lifetime; the only
// shared pieces are the admission counter and the room registry.
type Server struct {
	cfg     config.Config
	log     *zerolog.Logger
	workers []*worker
	adm     *admission

	mu     sync.Mutex
	ln     net.Listener
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer wires the worker pool and admission gate around the registry.
func NewServer(cfg config.Config, reg *core.Registry, logger *zerolog.Logger) *Server {
	d := core.NewDispatcher(reg, logger)

	adm := &admission{
		max:          int64(cfg.MaxSessions),
		writeTimeout: cfg.WriteTimeout,
		log:          logger,
	}
	workers := make([]*worker, cfg.Workers)
	for i := range workers {
		workers[i] = newWorker(i, cfg.ClientsPerWorker, cfg.SessionQueueSize,
			cfg.WriteTimeout, d, adm.release, logger)
	}
	adm.workers = workers

	return &Server{
		cfg:     cfg,
		log:     logger,
		workers: workers,
		adm:     adm,
	}
}

// Start binds the listener and launches the workers and accept loop. It
// returns once the server is accepting; use Stop to shut it down.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.ln = ln
	s.cancel = cancel
	s.mu.Unlock()

	for _, w := range s.workers {
		s.wg.Add(1)
		go func(w *worker) {
			defer s.wg.Done()
			w.run(ctx)
		}(w)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ln)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).
		Int("workers", s.cfg.Workers).
		Int("max_sessions", s.cfg.MaxSessions).
		Msg("chat server listening")
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}
		s.adm.admit(conn)
	}
}

// Addr reports the bound listen address, useful when the config asked for an
// ephemeral port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveSessions reports how many connections currently hold an admission
// slot.
func (s *Server) ActiveSessions() int64 {
	return s.adm.activeSessions()
}

// Stop closes the listener, tears down every live session and waits for the
// workers to drain.
func (s *Server) Stop() {
	s.mu.Lock()
	ln, cancel := s.ln, s.cancel
	s.ln, s.cancel = nil, nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("chat server stopped")
}
