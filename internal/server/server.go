// Package server wires the HTTP front door for holdoff.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/watzon/holdoff/internal/config"
	"github.com/watzon/holdoff/internal/database"
	"github.com/watzon/holdoff/internal/scheduler"
)

type Server struct {
	cfg        *config.Config
	db         *database.DB
	sched      *scheduler.Scheduler
	httpServer *http.Server
	router     *Router
}

func New(cfg *config.Config, db *database.DB, sched *scheduler.Scheduler) *Server {
	srv := &Server{
		cfg:   cfg,
		db:    db,
		sched: sched,
	}

	srv.router = NewRouter(srv)
	srv.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return srv
}

func (s *Server) Start(ctx context.Context) error {
	log.Info().
		Str("addr", s.cfg.Server.Address()).
		Msg("Starting server")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) DB() *database.DB {
	return s.db
}

func (s *Server) Config() *config.Config {
	return s.cfg
}

func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.sched
}
