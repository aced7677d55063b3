package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/config"
	"github.com/DianaTao/solace/internal/observability"
	"github.com/DianaTao/solace/middleware"
	"github.com/DianaTao/solace/repositories"
	"github.com/DianaTao/solace/repositories/postgres"
	"github.com/DianaTao/solace/services/audit"
	"github.com/DianaTao/solace/services/casenotes"
	"github.com/DianaTao/solace/services/clients"
	"github.com/DianaTao/solace/services/ratelimit"
	"github.com/DianaTao/solace/services/reports"
	"github.com/DianaTao/solace/services/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// auditDrainTimeout bounds how long shutdown waits for queued audit events
const auditDrainTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection: everything is
// constructed once at startup, shared by every request and disposed in Close.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Observability
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Auth
	Gateway        *auth.Gateway
	AuthMiddleware *middleware.AuthMiddleware

	// Rate limiting; nil when disabled
	RateLimiter *ratelimit.Limiter

	// Services
	Audit     *audit.AuditService
	Clients   *clients.Service
	CaseNotes *casenotes.Service
	Tasks     *tasks.Service
	Reports   *reports.Service

	closeStore  func() error
	stopCleanup context.CancelFunc
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	deps.initRepositories()

	// Auth settings are re-read from the environment on every request
	deps.initAuth(cfg, config.EnvAuthSource{})

	if err := deps.initServices(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesFromRepositories wires everything above the storage layer
// over existing repositories. Tests use it with mocks; the database handle
// stays nil.
func NewDependenciesFromRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger,
	repos *repositories.Repositories, txMgr repositories.TransactionManager, settings auth.SettingsSource) (*Dependencies, error) {
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Repos:     repos,
		TxManager: txMgr,
	}
	deps.initMetrics()
	deps.initAuth(cfg, settings)
	if err := deps.initServices(ctx, cfg); err != nil {
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if cfg.Database.AutoMigrate {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.Logger.Info("repositories initialized")
}

// initAuth builds the gateway. Settings are read per request, so the
// verification mode is never fixed here. The provider client carries no
// timeout of its own; each remote call is bounded by the provider timeout
// in effect for that request.
func (d *Dependencies) initAuth(cfg *config.Config, settings auth.SettingsSource) {
	d.Gateway = auth.NewGateway(settings, d.Repos.Profiles, d.Logger, auth.GatewayConfig{
		LocalMissingProfile: cfg.Auth.LocalMissingProfile,
		HTTPClient:          &http.Client{},
		Recorder:            d.Metrics,
	})
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Gateway, d.Logger)
	d.Logger.Info("auth gateway initialized", zap.String("mode", string(d.Gateway.Mode())))
}

func (d *Dependencies) initServices(ctx context.Context, cfg *config.Config) error {
	d.Audit = audit.NewAuditService(d.Repos.AuditLogs, d.Logger, audit.DefaultConfig())
	if err := d.Audit.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	if cfg.RateLimit.Enabled {
		store, closeStore := ratelimit.NewStore(ctx, cfg.RateLimit, d.Logger)
		d.closeStore = closeStore
		if mem, ok := store.(*ratelimit.MemoryStore); ok && cfg.RateLimit.CleanupPeriod > 0 {
			cleanupCtx, cancel := context.WithCancel(context.Background())
			d.stopCleanup = cancel
			go mem.StartCleanupWorker(cleanupCtx, cfg.RateLimit.CleanupPeriod, cfg.RateLimit.Window)
		}
		d.RateLimiter = ratelimit.NewLimiter(store, cfg.RateLimit, d.Logger)
	} else {
		d.Logger.Warn("rate limiting disabled")
	}

	d.Clients = clients.NewService(d.Repos, d.TxManager, d.Audit, d.Logger)
	d.CaseNotes = casenotes.NewService(d.Repos, d.Audit, d.Logger)
	d.Tasks = tasks.NewService(d.Repos, d.Audit, d.Logger)

	var narrator reports.Narrator
	if cfg.LLM.Enabled() {
		narrator = reports.NewChatClient(cfg.LLM, d.Logger)
		d.Logger.Info("report narratives enabled", zap.String("model", cfg.LLM.Model))
	} else {
		d.Logger.Info("LLM_API_KEY not set, reports will contain statistics only")
	}
	d.Reports = reports.NewService(d.Repos, narrator, d.Audit, d.Logger).WithMetrics(d.Metrics)

	d.Logger.Info("services initialized")
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Flush queued audit events before the database goes away
	if d.Audit != nil {
		if err := d.Audit.Stop(auditDrainTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.stopCleanup != nil {
		d.stopCleanup()
	}
	if d.closeStore != nil {
		if err := d.closeStore(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close rate limit store: %w", err))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
