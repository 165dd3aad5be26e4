package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sangkips/investify-billing/internal/infrastructure/scheduler"
	"github.com/sangkips/investify-billing/internal/presentation/http/handler"
	"github.com/sangkips/investify-billing/internal/presentation/http/middleware"
	"github.com/sangkips/investify-billing/internal/presentation/http/routes"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background scheduler",
	Example: `  billing serve
  billing serve --no-scheduler`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("no-scheduler", false, "Serve HTTP only; run jobs from another process")
	serveCmd.Flags().Bool("migrate", false, "Run database migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := migrateAndSeed(a); err != nil {
			return err
		}
	}

	if err := handler.RegisterValidators(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var jobs *handler.JobHandler
	if off, _ := cmd.Flags().GetBool("no-scheduler"); !off {
		sched, err := scheduler.New(cfg.Reminder.Timezone, log)
		if err != nil {
			return err
		}
		if err := a.registerJobs(sched); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		jobs = handler.NewJobHandler(sched)
	}

	sqlDB, err := a.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfigFrom(cfg.RateLimit.Requests, cfg.RateLimit.Duration))
	defer limiter.Close()

	router := routes.Setup(&routes.Handlers{
		Auth:         handler.NewAuthHandler(a.auth),
		Customer:     handler.NewCustomerHandler(a.customers),
		Invoice:      handler.NewInvoiceHandler(a.invoices, a.reminders),
		Quote:        handler.NewQuoteHandler(a.quotes),
		Payment:      handler.NewPaymentHandler(a.payments, a.webhooks, log),
		Subscription: handler.NewSubscriptionHandler(a.subscriptions),
		Report:       handler.NewReportHandler(a.reports),
		Health:       handler.NewHealthHandler(cfg.App.Name, sqlDB),
		Jobs:         jobs,
	}, &routes.Deps{
		JWTManager:      a.jwt,
		Cfg:             cfg,
		IdempotencyRepo: a.idempotencyRepo,
		RateLimiter:     limiter,
		Log:             log,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", port, "backend", cfg.App.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
