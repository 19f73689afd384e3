package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bobarin/voiceclone/internal/logger"
)

// RouterConfig holds settings for the API router.
// Passed from main.go so the router can configure CORS and auth from env vars.
type RouterConfig struct {
	// BackendAPIKey is the key that must be provided in X-API-Key or Authorization: Bearer <key>.
	// If empty, auth middleware is skipped (development mode).
	BackendAPIKey string

	// CorsAllowedOrigins is a comma-separated list of allowed origins.
	// If empty, defaults to "*" (development mode).
	CorsAllowedOrigins string

	// Metrics, when set, is served on GET /metrics without auth.
	Metrics http.Handler
}

func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Access log goes through the application logger so the studio UI can keep
	// the terminal clean.
	accessLog := middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(logger.Writer(), "[HTTP] ", 0),
		NoColor: true,
	})

	// Global middleware (applied to all routes including /health)
	r.Use(middleware.RequestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CorsAllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check and metrics are public, no auth required
	r.Get("/health", h.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.BackendAPIKey != "" {
			r.Use(APIKeyAuth(cfg.BackendAPIKey))
		}

		// Engine lifecycle
		r.Post("/load", h.Load)
		r.Post("/unload", h.Unload)
		r.Get("/status", h.Status)

		// Synthesis
		r.Post("/single", h.Single)
		r.Post("/several", h.Several)

		// Artifacts
		r.Get("/files/{name}", h.File)
	})

	return r
}

// allowedOrigins restricts origins when configured, otherwise allows all (dev mode).
func allowedOrigins(csv string) []string {
	if csv == "" {
		return []string{"*"}
	}

	origins := strings.Split(csv, ",")
	trimmed := make([]string, 0, len(origins))
	for _, o := range origins {
		if s := strings.TrimSpace(o); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	if len(trimmed) == 0 {
		return []string{"*"}
	}
	return trimmed
}
