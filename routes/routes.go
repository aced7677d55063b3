package routes

import (
	"net/http"

	"github.com/DianaTao/solace/app"
	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/handlers"
	"github.com/DianaTao/solace/middleware"
	"github.com/DianaTao/solace/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Version is reported by /api/health
var Version = "dev"

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(chimw.RequestID)
	proxies, err := cfg.Server.TrustedProxyNets()
	if err != nil {
		deps.Logger.Warn("ignoring invalid trusted proxies", zap.Error(err))
		proxies = nil
	}
	r.Use(middleware.TrustedRealIP(proxies))
	r.Use(middleware.RequestMeta)
	r.Use(middleware.Instrument(deps.Metrics, deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if deps.RateLimiter != nil {
		r.Use(middleware.RateLimit(deps.RateLimiter, deps.Metrics, deps.Logger))
	}

	// Health check endpoints
	var db handlers.DatabaseChecker
	if deps.DB != nil {
		db = deps.DB
	}
	var store handlers.StorePinger
	if deps.RateLimiter != nil {
		store = deps.RateLimiter.Store()
	}
	health := handlers.NewHealthHandler(db, store, deps.Gateway, Version, deps.Logger)
	if deps.Audit != nil {
		health.WithAudit(deps.Audit)
	}
	r.Get("/healthz", health.HandleLiveness)
	r.Get("/readyz", health.HandleReadiness)
	r.Get("/api/health", health.HandleHealth)

	if cfg.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	authn := deps.AuthMiddleware
	authHandler := handlers.NewAuthHandler(deps.Gateway, deps.Logger)
	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/mode", authHandler.HandleMode)
		r.With(authn.OptionalAuth).Get("/session", authHandler.HandleSession)
		r.With(authn.RequireAuth).Get("/me", authHandler.HandleMe)
	})

	clientHandler := handlers.NewClientHandler(deps.Clients, deps.Logger)
	noteHandler := handlers.NewCaseNoteHandler(deps.CaseNotes, deps.Logger)
	taskHandler := handlers.NewTaskHandler(deps.Tasks, deps.Logger)
	reportHandler := handlers.NewReportHandler(deps.Reports, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.Audit, deps.Logger)

	// Case management (caseworkers and above)
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireAuth)
		r.Use(authn.RequireRole(auth.RoleSocialWorker))

		r.Route("/api/clients", func(r chi.Router) {
			r.Get("/", clientHandler.HandleList)
			r.Post("/", clientHandler.HandleCreate)
			r.Get("/{id}", clientHandler.HandleGet)
			r.Put("/{id}", clientHandler.HandleUpdate)
			r.Delete("/{id}", clientHandler.HandleDelete)
			r.Get("/{id}/summary", clientHandler.HandleSummary)
		})

		r.Route("/api/case-notes", func(r chi.Router) {
			r.Get("/", noteHandler.HandleList)
			r.Post("/", noteHandler.HandleCreate)
			r.Get("/{id}", noteHandler.HandleGet)
			r.Put("/{id}", noteHandler.HandleUpdate)
			r.Delete("/{id}", noteHandler.HandleDelete)
		})

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.HandleList)
			r.Post("/", taskHandler.HandleCreate)
			r.Get("/{id}", taskHandler.HandleGet)
			r.Put("/{id}", taskHandler.HandleUpdate)
			r.Delete("/{id}", taskHandler.HandleDelete)
			r.Post("/{id}/complete", taskHandler.HandleComplete)
			r.Get("/{id}/calendar-event", taskHandler.HandleCalendarEvent)
		})

		r.Route("/api/reports", func(r chi.Router) {
			r.Get("/", reportHandler.HandleCatalog)
			r.Get("/service-status", reportHandler.HandleStatus)
			r.Get("/status", reportHandler.HandleStatus)
			r.Post("/monthly-summary", reportHandler.HandleMonthlySummary)
			r.Get("/monthly-summary", reportHandler.HandleMonthlySummary)
			r.Post("/quarterly-outcome", reportHandler.HandleQuarterlyOutcome)
			r.Get("/quarterly-outcome", reportHandler.HandleQuarterlyOutcome)
		})

		// Audit trail (supervisors and above)
		r.Route("/api/audit", func(r chi.Router) {
			r.Use(authn.RequireRole(auth.RoleSupervisor))
			r.Get("/actors/{actorID}", auditHandler.HandleActorHistory)
			r.Get("/{resourceType}/{id}", auditHandler.HandleResourceTrail)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteRequestError(w, r, http.StatusNotFound, "not_found", "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteRequestError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
