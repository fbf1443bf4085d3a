package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkwell/inkwell/internal/blog"
	"github.com/inkwell/inkwell/internal/cache"
	"github.com/inkwell/inkwell/internal/config"
	"github.com/inkwell/inkwell/internal/cookie"
	"github.com/inkwell/inkwell/internal/handlers"
	"github.com/inkwell/inkwell/internal/health"
	"github.com/inkwell/inkwell/internal/logger"
	"github.com/inkwell/inkwell/internal/supabase"
	"github.com/inkwell/inkwell/web"
)

func main() {
	cfg := config.Load()

	log := logger.NewWithSentry(logger.SentryConfig{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
	}, handlers.RequestIDExtractor())

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !cfg.HasEnvVars() {
		log.Warn("SUPABASE_URL and SUPABASE_ANON_KEY are not set; pages will show a setup notice")
	}

	cookies := cookie.New(cookie.WithSecret(cfg.CookieSecret))

	clientOpts := []supabase.Option{supabase.WithLogger(log)}
	if cfg.SupabaseServiceKey != "" {
		clientOpts = append(clientOpts, supabase.WithServiceKey(cfg.SupabaseServiceKey))
	}
	client := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, clientOpts...)

	var shutdownHooks []func(context.Context) error

	checks := health.Checks{}
	if cfg.HasEnvVars() {
		checks["supabase"] = client.Health
	}

	var posts cache.Cache[[]blog.Post]
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		posts = cache.NewRedis[[]blog.Post](redisClient, "inkwell", cfg.CacheTTL)
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		shutdownHooks = append(shutdownHooks, func(context.Context) error {
			return redisClient.Close()
		})
	} else {
		mem := cache.NewMemory[[]blog.Post](cfg.CacheTTL)
		posts = mem
		shutdownHooks = append(shutdownHooks, func(context.Context) error {
			return mem.Close()
		})
	}

	h, err := handlers.New(cfg, log, cookies, client, posts, web.FS)
	if err != nil {
		return err
	}

	router := h.Routes()
	router.Get("/healthz", health.LivenessHandler())
	router.Get("/readyz", health.ReadinessHandler(checks, health.WithLogger(log)))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range shutdownHooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.String("error", err.Error()))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	log.Info("shutdown completed")
	return nil
}
