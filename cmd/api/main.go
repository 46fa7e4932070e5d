// Package main is the entrypoint for the Abacus API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/abacus-app/abacus/internal/auth"
	"github.com/abacus-app/abacus/internal/cache"
	"github.com/abacus-app/abacus/internal/calc"
	"github.com/abacus-app/abacus/internal/config"
	"github.com/abacus-app/abacus/internal/handler"
	"github.com/abacus-app/abacus/internal/history"
	"github.com/abacus-app/abacus/internal/metrics"
	"github.com/abacus-app/abacus/internal/middleware"
	"github.com/abacus-app/abacus/internal/repository"
	"github.com/abacus-app/abacus/internal/server"
	"github.com/abacus-app/abacus/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.RunMigrations {
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Error("failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry)

	authOpts := []auth.Option{auth.WithMetrics(recorder)}
	if cfg.GoogleEnabled() {
		provider, err := auth.NewGoogleProvider(ctx, auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL(),
			IssuerURL:    cfg.GoogleIssuerURL,
		})
		if err != nil {
			logger.Error("failed to configure Google sign-in", slog.String("error", err.Error()))
			os.Exit(1)
		}
		authOpts = append(authOpts, auth.WithFederated(
			provider,
			auth.NewStateSigner(cfg.SessionSecret, cfg.OAuthFlowTTL),
			cacheClient,
		))
		logger.Info("federated sign-in enabled", slog.String("provider", provider.Name()))
	}

	authService := auth.NewService(repo, cacheClient, auth.Config{SessionTTL: cfg.SessionTTL}, logger, authOpts...)
	ledger := history.New(repo, logger, history.WithMetrics(recorder))
	calculator := service.NewCalculatorService(calc.Options{LegacyFalsyZero: cfg.CalcLegacyFalsyZero}, recorder, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := handler.NewRouter(handler.RouterConfig{
		Logger:        logger,
		Authenticator: authService,
		Health:        handler.NewHealthHandler(repo, cacheClient, logger),
		Metrics:       handler.NewMetricsHandler(registry),
		Calculate:     handler.NewCalculateHandler(calculator, logger),
		Auth: handler.NewAuthHandler(authService, handler.CookieConfig{
			Secure: cfg.CookieSecure,
		}, logger),
		Profile: handler.NewProfileHandler(authService, logger),
		History: handler.NewHistoryHandler(ledger, logger),
		Views:   handler.NewViewHandler(),
		CalcRateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: cacheClient,
			Metrics: recorder,
			Scope:   cache.ScopeCalculate,
			Enabled: cfg.RateLimitCalcEnabled,
			RPS:     cfg.RateLimitCalcRPS,
			Burst:   cfg.RateLimitCalcBurst,
		},
		AuthRateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: cacheClient,
			Metrics: recorder,
			Scope:   cache.ScopeAuth,
			Enabled: true,
			RPS:     cfg.RateLimitAuthRPS,
			Burst:   cfg.RateLimitAuthBurst,
		},
		CORS:               corsCfg,
		Security:           middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RequestTimeout:     cfg.WriteTimeout,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
