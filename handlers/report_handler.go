package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/services"
	"github.com/DianaTao/solace/services/reports"
	"go.uber.org/zap"
)

// ReportService generates case activity reports
type ReportService interface {
	MonthlySummary(ctx context.Context, actor *auth.Principal, month, year int) (*reports.Report, error)
	QuarterlyOutcome(ctx context.Context, actor *auth.Principal, quarter, year int) (*reports.Report, error)
	Status() reports.ServiceStatus
	Catalog(actor *auth.Principal) reports.Catalog
}

// ReportHandler handles /api/reports
type ReportHandler struct {
	service ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{service: service, logger: logger}
}

// HandleCatalog handles GET /api/reports
func (h *ReportHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	writeOK(w, h.service.Catalog(actor), h.logger)
}

// HandleMonthlySummary handles POST (and GET) /api/reports/monthly-summary?month=&year=
func (h *ReportHandler) HandleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "month", h.service.MonthlySummary)
}

// HandleQuarterlyOutcome handles POST (and GET) /api/reports/quarterly-outcome?quarter=&year=
func (h *ReportHandler) HandleQuarterlyOutcome(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "quarter", h.service.QuarterlyOutcome)
}

func (h *ReportHandler) generate(w http.ResponseWriter, r *http.Request, unit string,
	fn func(context.Context, *auth.Principal, int, int) (*reports.Report, error)) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	n, err := requiredInt(r, unit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	year, err := requiredInt(r, "year")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	report, err := fn(r.Context(), actor, n, year)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, report, h.logger)
}

// HandleStatus handles GET /api/reports/service-status
func (h *ReportHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.service.Status(), h.logger)
}

func requiredInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, services.Validation(name, name+" is required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.Validation(name, name+" must be an integer")
	}
	return v, nil
}
