package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// RouterParams carries everything the HTTP surface needs. Gatherer backs
// /metrics and defaults to the global registry.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          controllers.Pinger
	PaystackClient webhookcontrollers.PaystackSigner
	PaystackSvc    webhookcontrollers.PaystackWebhookService
	HTTPMetrics    *metrics.HTTPMetrics
	WebhookMetrics *metrics.WebhookMetrics
	Gatherer       prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg, logg := params.Config, params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, params.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": params.DB,
			"redis":    params.Redis,
		}))
	})

	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhook", webhookcontrollers.PaystackWebhook(params.PaystackSvc, params.PaystackClient, logg, params.WebhookMetrics))
	})

	return r
}
