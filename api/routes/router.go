package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-pos/api/controllers"
	terminalcontrollers "github.com/angelmondragon/packfinderz-pos/api/controllers/terminals"
	"github.com/angelmondragon/packfinderz-pos/api/middleware"
	"github.com/angelmondragon/packfinderz-pos/pkg/config"
	"github.com/angelmondragon/packfinderz-pos/pkg/logger"
	"github.com/angelmondragon/packfinderz-pos/pkg/redis"
)

// Deps are the collaborators mounted by NewRouter. Journal, Idempotency and
// Gatherer are optional.
type Deps struct {
	Registry    terminalcontrollers.Registry
	Journal     terminalcontrollers.AttemptLister
	Idempotency redis.IdempotencyStore
	Readiness   map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	reg := deps.Registry
	idempotent := middleware.Idempotency(deps.Idempotency, logg)

	r.Route("/api/v1/terminals", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, logg))

		r.Post("/sessions", terminalcontrollers.OpenSession(reg, logg))
		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Get("/", terminalcontrollers.GetSession(reg, logg))
			r.Delete("/", terminalcontrollers.CloseSession(reg, logg))
			r.Get("/products", terminalcontrollers.ListProducts(reg, logg))
			r.Post("/ledger/refresh", terminalcontrollers.RefreshLedger(reg, logg))

			r.Route("/items", func(r chi.Router) {
				r.Post("/", terminalcontrollers.AddItem(reg, logg))
				r.Delete("/", terminalcontrollers.ClearCart(reg, logg))
				r.Patch("/{productId}", terminalcontrollers.UpdateQuantity(reg, logg))
				r.Delete("/{productId}", terminalcontrollers.RemoveItem(reg, logg))
				r.Put("/{productId}/discount", terminalcontrollers.SetLineDiscount(reg, logg))
			})

			r.Put("/discount", terminalcontrollers.ApplyDiscount(reg, logg))
			r.Delete("/discount", terminalcontrollers.RemoveDiscount(reg, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", terminalcontrollers.CheckoutStatus(reg, logg))
				r.Get("/attempts", terminalcontrollers.ListAttempts(reg, deps.Journal, logg))
				r.Post("/review", terminalcontrollers.ReviewCheckout(reg, logg))
				r.Post("/begin", terminalcontrollers.BeginCheckout(reg, logg))
				r.With(idempotent).Post("/submit", terminalcontrollers.SubmitCheckout(reg, logg))
				r.Post("/retry", terminalcontrollers.RetryCheckout(reg, logg))
				r.Post("/cancel", terminalcontrollers.CancelCheckout(reg, logg))
			})
		})
	})

	return r
}
