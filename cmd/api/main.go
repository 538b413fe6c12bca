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
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/users"
	paystackwebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/paystack"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/paystack"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	serviceName     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	if cfg.Paystack.SecretKey == "" {
		logg.Warn(bootCtx, "paystack secret key is not set; webhooks will be refused")
	}

	reg := prometheus.DefaultRegisterer
	sender, err := mailer.New(cfg.Mail, logg)
	if err != nil {
		return err
	}
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Sender:  sender,
		Fees:    notifications.DeliveryFeesFromConfig(cfg.Delivery),
		Support: notifications.Support{Email: cfg.Mail.SupportEmail, Phone: cfg.Mail.SupportPhone},
		Metrics: metrics.NewNotificationMetrics(reg),
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	materializer, err := orders.NewMaterializer(orders.MaterializerParams{
		DB:                dbClient,
		Repo:              ordersRepo,
		Users:             users.NewRepository(dbClient.DB()),
		Outbox:            outboxSvc,
		Logger:            logg,
		NotificationDelay: cfg.Outbox.GracePeriod,
	})
	if err != nil {
		return err
	}

	guard, err := paystackwebhook.NewIdempotencyGuard(redisClient, ordersRepo, cfg.Idempotency.WebhookTTL, logg)
	if err != nil {
		return err
	}

	webhookSvc, err := paystackwebhook.NewService(paystackwebhook.ServiceParams{
		Guard:         guard,
		Materializer:  materializer,
		Notifications: dispatcher,
		Outbox:        outboxSvc,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
		Logger:        logg,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			PaystackClient: paystack.NewClient(cfg.Paystack),
			PaystackSvc:    webhookSvc,
			HTTPMetrics:    metrics.NewHTTPMetrics(reg),
			WebhookMetrics: metrics.NewWebhookMetrics(reg),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID("local"),
	})
	logg.Info(ctx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
