package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"calagent/internal/chat"
)

// Config holds router configuration
type Config struct {
	ChatHandler    *chat.Handler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", cfg.ChatHandler.HandleHealth)
	r.Post("/chat", cfg.ChatHandler.HandleChat)
	r.Post("/confirm-booking", cfg.ChatHandler.HandleConfirmBooking)
	r.Get("/chat/history", cfg.ChatHandler.HandleHistory)
	r.Get("/chat/widget.js", cfg.ChatHandler.HandleWidgetJS)
	r.Get("/", cfg.ChatHandler.HandleIndex)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
