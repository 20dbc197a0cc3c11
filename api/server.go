package api

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"realty_backoffice/auth"
	"realty_backoffice/config"
	"realty_backoffice/ratelimit"
	"realty_backoffice/services"
)

// Deps are the collaborators the HTTP layer fronts.
type Deps struct {
	Listings  *services.ListingService
	Inquiries *services.InquiryService
	Importer  *services.ImportService
	Scraper   services.ListingScraper
	Sessions  *auth.Manager
	Limiter   ratelimit.Limiter
	Logger    *slog.Logger
}

type Server struct {
	deps       Deps
	production bool
	router     chi.Router
	httpServer *http.Server
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		deps:       deps,
		production: cfg.IsProduction(),
	}

	r := chi.NewRouter()
	if cfg.HTTP.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(deps.Limiter))

		r.Get("/health", s.handleHealth)
		r.Get("/listings", s.handleListListings)
		r.Get("/listings/{id}", s.handleGetListing)
		r.HandleFunc("/inquiries", s.handleSubmitInquiry)

		r.Group(func(r chi.Router) {
			r.Use(requireSession(deps.Sessions))

			r.Post("/proxy/scrape-onehome", s.handleScrape)

			r.Route("/admin/listings", func(r chi.Router) {
				r.Get("/", s.handleAdminListListings)
				r.Post("/", s.handleCreateListing)
				r.Post("/import", s.handleImportListing)
				r.Post("/refresh", s.handleRefreshListings)
				r.Get("/{id}", s.handleAdminGetListing)
				r.Put("/{id}", s.handleUpdateListing)
				r.Delete("/{id}", s.handleDeleteListing)
				r.Post("/{id}/cover", s.handleUploadCover)
			})

			r.Route("/admin/inquiries", func(r chi.Router) {
				r.Get("/", s.handleListInquiries)
				r.Get("/unread-count", s.handleUnreadCount)
				r.Post("/{id}/read", s.handleMarkInquiryRead)
				r.Delete("/{id}", s.handleDeleteInquiry)
			})
		})
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("API: listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("API: shutting down")
	return s.httpServer.Shutdown(ctx)
}
