package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/services/audit"
	"github.com/DianaTao/solace/utils"
	"go.uber.org/zap"
)

var errDatabaseNotInitialized = errors.New("database not initialized")

// DatabaseChecker verifies database connectivity
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorePinger is the rate-limit store as seen by health checks
type StorePinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// ModeReporter reports the verification mode in effect
type ModeReporter interface {
	Mode() auth.Mode
}

// AuditQueue exposes the audit writer's queue state
type AuditQueue interface {
	Stats() audit.Stats
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db      DatabaseChecker
	store   StorePinger
	modes   ModeReporter
	audit   AuditQueue
	version string
	logger  *zap.Logger
	now     func() time.Time
}

// NewHealthHandler creates a new HealthHandler. store may be nil when rate
// limiting is disabled.
func NewHealthHandler(db DatabaseChecker, store StorePinger, modes ModeReporter, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		store:   store,
		modes:   modes,
		version: version,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithAudit adds the audit queue to /api/health
func (h *HealthHandler) WithAudit(q AuditQueue) *HealthHandler {
	h.audit = q
	return h
}

// HandleLiveness handles GET /healthz
// Always returns 200 while the process is serving
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().Format(time.RFC3339),
	}, h.logger)
}

// HandleHealth handles GET /api/health. A failing check reports degraded
// with status 200 so load balancers keep routing; /readyz is the gate.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if err := h.checkDatabase(ctx); err != nil {
		checks["database"] = "unhealthy"
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.store == nil {
		checks["rate_limit"] = "disabled"
	} else if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("rate limit store health check failed",
			zap.String("store", h.store.Name()),
			zap.Error(err))
		checks["rate_limit"] = "unhealthy"
		healthy = false
	} else {
		checks["rate_limit"] = "healthy (" + h.store.Name() + ")"
	}

	if h.modes != nil {
		checks["auth_mode"] = string(h.modes.Mode())
	}

	if h.audit != nil {
		st := h.audit.Stats()
		if st.Running {
			checks["audit"] = fmt.Sprintf("healthy (pending %d, dropped %d)", st.Pending, st.Dropped)
		} else {
			checks["audit"] = "stopped"
			healthy = false
		}
	}

	status := "healthy"
	if !healthy {
		status = "degraded"
	}

	writeOK(w, HealthResponse{
		Status:    status,
		Timestamp: h.now().Format(time.RFC3339),
		Version:   h.version,
		Checks:    checks,
	}, h.logger)
}

// HandleReadiness handles GET /readyz
// Returns 503 when the database is unreachable
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ready",
		Timestamp: h.now().Format(time.RFC3339),
		Checks:    map[string]string{"database": "healthy"},
	}
	httpStatus := http.StatusOK

	if err := h.checkDatabase(ctx); err != nil {
		response.Status = "not_ready"
		response.Checks["database"] = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return errDatabaseNotInitialized
	}
	if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		return err
	}
	return nil
}
