// Package web exposes the core API over HTTP as explicit JSON commands:
// reset, search, restock, order selection and report export.
package web

import (
	"context"
	"net/http"

	"bookstore/internal/config"
	"bookstore/internal/core"
	mw "bookstore/internal/web/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the bookstore service.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server around the core service.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Reset lifecycle
		r.Post("/reset", s.handleStartReset)
		r.Get("/reset/{resetID}", s.handleResetProgress)
		r.Get("/reset/{resetID}/result", s.handleResetResult)

		// Catalog
		r.Get("/books", s.handleListBooks)
		r.Post("/books/{isbn}/restock", s.handleRestock)

		// Orders
		r.Get("/orders", s.handleListOrders)
		r.Get("/orders/{orderID}/items", s.handleOrderItems)
		r.Get("/orders/{orderID}/total", s.handleOrderTotal)

		// Report
		r.Get("/report", s.handleReport)
		r.Post("/report/export", s.handleExportReport)

		// Snapshot metadata
		r.Get("/store", s.handleStoreMeta)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
