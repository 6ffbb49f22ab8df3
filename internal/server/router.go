package server

import (
	"net/http"

	"github.com/watzon/holdoff/internal/metrics"
	"github.com/watzon/holdoff/internal/server/handlers"
)

type Router struct {
	server      *Server
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewRouter(srv *Server) *Router {
	r := &Router{
		server: srv,
		mux:    http.NewServeMux(),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)

	if r.server.cfg.Server.CORS.Enabled {
		r.Use(CORSMiddleware(r.server.cfg.Server.CORS))
	}
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) setupRoutes() {
	h := handlers.New(r.server.Scheduler(), &r.server.cfg.Trigger)

	r.mux.HandleFunc("POST /{$}", h.Schedule)
	r.mux.HandleFunc("GET /status", h.Status)
	r.mux.HandleFunc("POST /hooks/{key}", h.Schedule)
	r.mux.HandleFunc("GET /hooks/{key}/status", h.Status)

	r.mux.HandleFunc("GET /health", h.Health)
	r.mux.Handle("GET /metrics", metrics.Handler())
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	handler.ServeHTTP(w, req)
}
