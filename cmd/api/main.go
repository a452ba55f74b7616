package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pins-charity/orderforms-backend/api/routes"
	"github.com/pins-charity/orderforms-backend/internal/notifications"
	"github.com/pins-charity/orderforms-backend/internal/orderforms"
	"github.com/pins-charity/orderforms-backend/internal/payments"
	"github.com/pins-charity/orderforms-backend/internal/sessions"
	"github.com/pins-charity/orderforms-backend/internal/submissions"
	"github.com/pins-charity/orderforms-backend/internal/vouchers"
	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/db"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
	"github.com/pins-charity/orderforms-backend/pkg/metrics"
	"github.com/pins-charity/orderforms-backend/pkg/migrate"
	"github.com/pins-charity/orderforms-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	sender, err := notifications.NewSender(cfg.Mail, logg)
	if err != nil {
		logg.Error(ctx, "failed to create mail sender", err)
		os.Exit(1)
	}
	composer := notifications.NewComposer(cfg.App.BaseURL(), cfg.Mail.DefaultReplyTo)
	notifier, err := notifications.NewNotifier(composer, sender, orderMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}

	formService, err := orderforms.NewService(orderforms.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to create order form service", err)
		os.Exit(1)
	}
	voucherService, err := vouchers.NewService(vouchers.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(ctx, "failed to create voucher service", err)
		os.Exit(1)
	}

	params := submissions.ServiceParams{
		Repo:     submissions.NewRepository(dbClient.DB()),
		Forms:    formService,
		Vouchers: voucherService,
		Notifier: notifier,
		Tx:       dbClient,
		Metrics:  orderMetrics,
		Logger:   logg,
	}
	if cfg.FeatureFlags.SubmitSerialize {
		locker, err := submissions.NewRedisLocker(redisClient, cfg.FeatureFlags.SubmitLockTTL, cfg.FeatureFlags.SubmitLockTTL)
		if err != nil {
			logg.Error(ctx, "failed to create submit lock", err)
			os.Exit(1)
		}
		params.Locker = locker
		logg.Info(ctx, "submit serialization enabled")
	}
	submissionService, err := submissions.NewService(params)
	if err != nil {
		logg.Error(ctx, "failed to create submission service", err)
		os.Exit(1)
	}

	sessionStore, err := sessions.NewStore(redisClient, cfg.Session.TTL)
	if err != nil {
		logg.Error(ctx, "failed to create session store", err)
		os.Exit(1)
	}

	var (
		gateway   *payments.Gateway
		processor *payments.Processor
	)
	if cfg.PayPal.Enabled() {
		gateway, err = payments.NewGateway(cfg.PayPal, cfg.App.BaseURL())
		if err != nil {
			logg.Error(ctx, "failed to create paypal gateway", err)
			os.Exit(1)
		}
		var verifier payments.Verifier
		if cfg.PayPal.VerifyIPN {
			verifier = payments.NewPostbackVerifier(gateway.Endpoint(), &http.Client{Timeout: 10 * time.Second})
		}
		processor, err = payments.NewProcessor(gateway, verifier, submissionService, formService, notifier, logg)
		if err != nil {
			logg.Error(ctx, "failed to create paypal processor", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "paypal not configured, online payment disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			httpMetrics,
			formService,
			submissionService,
			sessionStore,
			composer,
			gateway,
			processor,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
	}
}
