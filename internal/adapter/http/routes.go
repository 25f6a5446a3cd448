package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Strob0t/DealerForge/internal/config"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/middleware"
	"github.com/Strob0t/DealerForge/internal/port/cache"
)

const defaultIdempotencyTTL = 24 * time.Hour

// RouteDeps carries the collaborators the routes need besides the handlers.
// Nil fields switch the matching feature off.
type RouteDeps struct {
	Gate middleware.Authenticator

	// WS serves the authenticated websocket endpoint.
	WS http.HandlerFunc
	// Metrics serves GET /metrics.
	Metrics http.Handler

	Idempotency    cache.Cache
	IdempotencyTTL time.Duration

	// LoginLimiter throttles POST /api/v1/auth/login per client IP.
	LoginLimiter *middleware.RateLimiter

	// Instrument wraps every request, outermost first (tracing, metrics).
	Instrument []func(http.Handler) http.Handler
}

// NewRouter builds the complete HTTP handler: the shared middleware chain,
// the operational endpoints and the versioned API.
func NewRouter(cfg config.Server, h *Handlers, deps RouteDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replayed", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	for _, mw := range deps.Instrument {
		r.Use(mw)
	}

	r.Get("/health", h.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.WS != nil {
		// Outside the request timeout: the connection outlives the upgrade.
		r.With(middleware.WSAuth(deps.Gate), recordTenant).Get("/ws", deps.WS)
	}

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(chimw.Timeout(cfg.RequestTimeout))
		}
		MountRoutes(r, h, deps)
	})
	return r
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, deps RouteDeps) {
	idem := passthrough
	if deps.Idempotency != nil {
		ttl := deps.IdempotencyTTL
		if ttl <= 0 {
			ttl = defaultIdempotencyTTL
		}
		idem = middleware.Idempotency(deps.Idempotency, ttl)
	}
	throttle := passthrough
	if deps.LoginLimiter != nil {
		throttle = deps.LoginLimiter.Handler
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"1"}`))
		})

		r.With(throttle).Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Gate))
			r.Use(recordTenant)

			r.Get("/auth/me", h.Me)
			r.Post("/auth/change-password", h.ChangePassword)

			// Dealership data, always scoped to the caller's tenant.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireTenant)

				r.Get("/clients", h.ListClients)
				r.Post("/clients", h.CreateClient)
				r.Get("/clients/{id}", h.GetClient)
				r.Put("/clients/{id}", h.UpdateClient)
				r.Delete("/clients/{id}", h.DeleteClient)

				r.Get("/options", h.ListOptions)
				r.Post("/options", h.CreateOption)
				r.Put("/options/{id}", h.RenameOption)
				r.Delete("/options/{id}", h.DeleteOption)

				r.Get("/vehicles", h.ListVehicles)
				r.Post("/vehicles", h.CreateVehicle)
				r.Get("/vehicles/{id}", h.GetVehicle)
				r.Put("/vehicles/{id}", h.UpdateVehicle)
				r.Delete("/vehicles/{id}", h.DeleteVehicle)
				r.Get("/vehicles/{id}/summary", h.VehicleSummary)
				r.Get("/vehicles/{id}/documents", h.ListVehicleDocuments)

				r.Get("/sales", h.ListSales)
				r.With(idem).Post("/sales", h.CreateSale)
				r.Get("/sales/{id}", h.GetSale)
				r.Post("/sales/{id}/cancel", h.CancelSale)
				r.Delete("/sales/{id}", h.CancelSale)

				r.Get("/entries", h.ListEntries)
				r.Post("/entries", h.CreateEntry)
				r.Get("/entries/{id}", h.GetEntry)
				r.Put("/entries/{id}", h.UpdateEntry)
				r.Delete("/entries/{id}", h.DeleteEntry)

				r.Post("/documents", h.CreateDocument)
				r.Get("/documents/{id}", h.GetDocument)
				r.Delete("/documents/{id}", h.DeleteDocument)

				r.Get("/settings", h.GetSettings)
				r.Put("/settings", h.UpdateSettings)
			})

			// Control plane
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequirePrivilege(user.PrivilegeSuperAdmin))

				r.Get("/tenants", h.ListTenants)
				r.With(idem).Post("/tenants", h.ProvisionTenant)
				r.Get("/tenants/{id}", h.GetTenant)
				r.Put("/tenants/{id}", h.UpdateTenant)
				r.Post("/tenants/{id}/toggle-status", h.ToggleTenantStatus)
				r.Put("/tenants/{id}/status", h.SetTenantStatus)
				r.Post("/tenants/{id}/reset-password", h.ResetTenantPassword)
			})
		})
	})
}

func passthrough(next http.Handler) http.Handler { return next }
