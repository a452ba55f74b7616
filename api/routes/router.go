package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pins-charity/orderforms-backend/api/controllers"
	"github.com/pins-charity/orderforms-backend/api/middleware"
	"github.com/pins-charity/orderforms-backend/internal/notifications"
	"github.com/pins-charity/orderforms-backend/internal/orderforms"
	"github.com/pins-charity/orderforms-backend/internal/payments"
	"github.com/pins-charity/orderforms-backend/internal/sessions"
	"github.com/pins-charity/orderforms-backend/internal/submissions"
	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/db"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
	"github.com/pins-charity/orderforms-backend/pkg/metrics"
	"github.com/pins-charity/orderforms-backend/pkg/redis"
)

// NewRouter wires every HTTP surface. redisClient, sessionStore, gateway and
// ipn may be nil; the features that need them are then disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	formService orderforms.Service,
	submissionService submissions.Service,
	sessionStore *sessions.Store,
	composer notifications.Composer,
	gateway *payments.Gateway,
	ipn *payments.Processor,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	pingers := map[string]controllers.Pinger{"database": dbP}
	if redisClient != nil {
		pingers["redis"] = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pingers, logg))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Typed nils must not reach the controllers as non-nil interfaces.
	var pending controllers.PendingOrders
	if sessionStore != nil {
		pending = sessionStore
	}
	var checkout controllers.CheckoutBuilder
	if gateway != nil {
		checkout = gateway
	}

	submitPolicy := middleware.NewRateLimitPolicy(
		"submit",
		cfg.RateLimit.SubmitWindow,
		cfg.RateLimit.SubmitIPLimit,
		cfg.RateLimit.SubmitEmailLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		if ipn != nil {
			r.Post("/webhooks/paypal", controllers.PayPalIPN(ipn, logg))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session, logg))
			if redisClient != nil {
				r.Use(middleware.Idempotency(redisClient, logg))
			}

			r.Get("/forms/by-slug/{slug}", controllers.FormBySlug(formService, submissionService, pending, logg))
			r.Get("/forms/{formID}", controllers.FormByID(formService, submissionService, pending, logg))
			r.Get("/forms/{formID}/availability", controllers.FormAvailability(submissionService, logg))
			r.Post("/forms/{formID}/total", controllers.FormTotal(submissionService, logg))
			r.Post("/forms/{formID}/validate", controllers.FormValidate(submissionService, pending, logg))

			submit := controllers.FormSubmit(submissionService, pending, composer, logg)
			if redisClient != nil {
				r.With(middleware.RateLimit(submitPolicy, redisClient, logg)).Post("/forms/{formID}/submissions", submit)
			} else {
				r.Post("/forms/{formID}/submissions", submit)
			}

			r.Get("/submissions/{reference}", controllers.OrderDetail(submissionService, formService, checkout, pending, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}
		r.Get("/forms", controllers.AdminListForms(formService, logg))
		r.Post("/forms", controllers.AdminCreateForm(formService, logg))
		r.Get("/forms/{formID}", controllers.AdminGetForm(formService, logg))
		r.Put("/forms/{formID}", controllers.AdminUpdateForm(formService, logg))
		r.Get("/forms/{formID}/export", controllers.AdminExportSubmissions(submissionService, logg))
		r.Post("/submissions/{action}", controllers.AdminApplyAction(submissionService, logg))
	})

	return r
}
