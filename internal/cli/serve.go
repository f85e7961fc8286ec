package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"

	"github.com/Cocadite/api-pe-na-porta/internal/config"
	"github.com/Cocadite/api-pe-na-porta/internal/handler"
	"github.com/Cocadite/api-pe-na-porta/internal/logging"
	"github.com/Cocadite/api-pe-na-porta/internal/middleware"
	"github.com/Cocadite/api-pe-na-porta/internal/router"
	"github.com/Cocadite/api-pe-na-porta/internal/service"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, closeLog, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	st, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	started := time.Now()
	subSvc := service.NewSubmissionService(st, log)

	var rateLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		var lstore limiter.Store
		switch cfg.RateLimit.Storage {
		case "redis":
			lstore, err = middleware.NewRedisStore(cfg.RateLimit.RedisURL)
			if err != nil {
				log.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				lstore = middleware.NewMemoryStore()
			}
		default:
			lstore = middleware.NewMemoryStore()
		}
		rateLimit, err = middleware.RateLimit(cfg.RateLimit.Rate, lstore, log)
		if err != nil {
			return err
		}
	}

	r := router.New(router.Options{
		Log:         log,
		Auth:        authenticator(cfg),
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   rateLimit,
		Health:      handler.NewHealthHandler(subSvc, log, started),
		Form:        handler.NewFormHandler(subSvc, log),
		Admin:       handler.NewAdminHandler(subSvc, log),
		Bot:         handler.NewBotHandler(subSvc, log),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("formqueue server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
