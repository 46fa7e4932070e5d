package handler

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/abacus-app/abacus/internal/guard"
	"github.com/abacus-app/abacus/internal/middleware"
)

// RouterConfig wires handlers and middleware into a router.
type RouterConfig struct {
	Logger        *slog.Logger
	Authenticator middleware.Authenticator

	Health    *HealthHandler
	Metrics   *MetricsHandler // optional
	Calculate *CalculateHandler
	Auth      *AuthHandler
	Profile   *ProfileHandler
	History   *HistoryHandler
	Views     *ViewHandler

	CalcRateLimit middleware.RateLimitConfig
	AuthRateLimit middleware.RateLimitConfig
	CORS          middleware.CORSConfig
	Security      middleware.SecurityConfig

	MaxRequestBodySize int64
	RequestTimeout     time.Duration
}

// NewRouter builds the chi router serving the API, the view routes and the
// ops endpoints.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := New()
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	authn := middleware.Authenticate(middleware.AuthConfig{
		Logger:        cfg.Logger,
		Authenticator: cfg.Authenticator,
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.MaxRequestBodySize > 0 {
			r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		}
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(authn)

		r.With(middleware.RateLimitIP(cfg.CalcRateLimit)).Post("/calculate", cfg.Calculate.Calculate)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitIP(cfg.AuthRateLimit))
				r.Post("/signup", cfg.Auth.SignUp)
				r.Post("/login", cfg.Auth.Login)
				r.Get("/google/login", cfg.Auth.GoogleLogin)
				r.Post("/google/start", cfg.Auth.GoogleStart)
				r.Get("/google/callback", cfg.Auth.GoogleCallback)
			})
			// Polled repeatedly while consent is outstanding.
			r.Get("/google/poll", cfg.Auth.GooglePoll)
			r.Get("/state", cfg.Auth.State)
			r.With(middleware.RequireSession()).Post("/logout", cfg.Auth.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession())

			r.Get("/profile", cfg.Profile.Get)
			r.Put("/profile", cfg.Profile.Put)

			r.Route("/history", func(r chi.Router) {
				r.Get("/", cfg.History.List)
				r.Post("/", cfg.History.Append)
				r.Delete("/{id}", cfg.History.Delete)
			})
		})
	})

	// View routes gated like the client routes.
	r.Group(func(r chi.Router) {
		r.Use(authn)
		for _, route := range guard.Routes {
			r.With(middleware.View(route.Guard)).Get(route.Path, cfg.Views.Render(route))
		}
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
