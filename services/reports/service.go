package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/repositories"
	"github.com/DianaTao/solace/services"
	"github.com/DianaTao/solace/services/audit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minReportYear   = 2020
	maxReportYear   = 2030
	excerptLimit    = 10
	excerptMaxRunes = 500
	resourceType    = "report"
)

// ReportType names a report
type ReportType string

const (
	ReportMonthlySummary   ReportType = "monthly_case_summary"
	ReportQuarterlyOutcome ReportType = "quarterly_outcome"
)

// Report statuses
const (
	StatusComplete = "complete"
	StatusNoData   = "no_data"
)

// NarrativeStatus tells whether a report carries generated prose
type NarrativeStatus string

const (
	NarrativeGenerated   NarrativeStatus = "generated"
	NarrativeUnavailable NarrativeStatus = "unavailable"
	NarrativeDisabled    NarrativeStatus = "disabled"
	NarrativeSkipped     NarrativeStatus = "skipped"
)

// Period is a reporting window, start inclusive and end exclusive
type Period struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Report is a generated monthly or quarterly report
type Report struct {
	ID              uuid.UUID                 `json:"id"`
	Type            ReportType                `json:"type"`
	Period          Period                    `json:"period"`
	Scope           string                    `json:"scope"`
	Status          string                    `json:"status"`
	Statistics      *repositories.PeriodStats `json:"statistics"`
	Narrative       string                    `json:"narrative,omitempty"`
	NarrativeStatus NarrativeStatus           `json:"narrative_status"`
	GeneratedFor    string                    `json:"generated_for"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// ServiceStatus describes narrative availability
type ServiceStatus struct {
	NarrativeEnabled bool         `json:"narrative_enabled"`
	Model            string       `json:"model,omitempty"`
	Reports          []ReportType `json:"available_reports"`
	Message          string       `json:"message"`
	CheckedAt        time.Time    `json:"checked_at"`
}

// CatalogEntry describes one report the caller can request
type CatalogEntry struct {
	Type         ReportType `json:"type"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Endpoint     string     `json:"endpoint"`
	Scope        string     `json:"scope"`
	RequiredRole auth.Role  `json:"required_role"`
	Available    bool       `json:"available"`
}

// Catalog lists the reports and whether narratives are generated
type Catalog struct {
	Message          string         `json:"message"`
	User             string         `json:"user"`
	Reports          []CatalogEntry `json:"available_reports"`
	NarrativeEnabled bool           `json:"narrative_enabled"`
}

// Metrics receives one observation per generated report
type Metrics interface {
	ReportGenerated(reportType, narrativeStatus string)
}

type nopMetrics struct{}

func (nopMetrics) ReportGenerated(string, string) {}

// Service builds case activity reports. Monthly summaries cover the
// caller's own caseload; quarterly outcomes cover every caseworker and
// need supervisor rights.
type Service struct {
	reports  repositories.ReportRepository
	narrator Narrator
	audit    audit.Recorder
	metrics  Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a report service. A nil narrator disables narratives.
func NewService(repos *repositories.Repositories, narrator Narrator, recorder audit.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		reports:  repos.Reports,
		narrator: narrator,
		audit:    recorder,
		metrics:  nopMetrics{},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithMetrics sets the report counter
func (s *Service) WithMetrics(m Metrics) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Status reports whether narrative generation is configured
func (s *Service) Status() ServiceStatus {
	status := ServiceStatus{
		NarrativeEnabled: s.narrator != nil,
		Reports:          []ReportType{ReportMonthlySummary, ReportQuarterlyOutcome},
		CheckedAt:        s.now(),
	}
	if m, ok := s.narrator.(interface{ Model() string }); ok {
		status.Model = m.Model()
	}
	if status.NarrativeEnabled {
		status.Message = "narrative generation is configured"
	} else {
		status.Message = "narrative generation is disabled; reports contain statistics only"
	}
	return status
}

// Catalog lists the available reports for actor
func (s *Service) Catalog(actor *auth.Principal) Catalog {
	entries := []CatalogEntry{
		{
			Type:         ReportMonthlySummary,
			Name:         "Monthly Case Summary",
			Description:  "Monthly analysis of your caseload activity",
			Endpoint:     "/api/reports/monthly-summary",
			Scope:        "caseload",
			RequiredRole: auth.RoleSocialWorker,
		},
		{
			Type:         ReportQuarterlyOutcome,
			Name:         "Quarterly Outcome Report",
			Description:  "Quarterly client outcomes and trends across every caseload",
			Endpoint:     "/api/reports/quarterly-outcome",
			Scope:        "organization",
			RequiredRole: auth.RoleSupervisor,
		},
	}
	for i := range entries {
		entries[i].Available = actor.HasRole(entries[i].RequiredRole)
	}

	c := Catalog{
		Message:          "case activity reports",
		Reports:          entries,
		NarrativeEnabled: s.narrator != nil,
	}
	if actor != nil {
		c.User = actor.DisplayName
	}
	return c
}

// MonthlyPeriod validates a month and returns its window
func MonthlyPeriod(month, year int, now time.Time) (Period, error) {
	if err := validateYear(year); err != nil {
		return Period{}, err
	}
	if month < 1 || month > 12 {
		return Period{}, services.Validation("month", "month must be between 1 and 12")
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	if start.After(now) {
		return Period{}, futurePeriod("month")
	}
	return Period{
		Label: start.Format("January 2006"),
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}, nil
}

// QuarterlyPeriod validates a quarter and returns its window
func QuarterlyPeriod(quarter, year int, now time.Time) (Period, error) {
	if err := validateYear(year); err != nil {
		return Period{}, err
	}
	if quarter < 1 || quarter > 4 {
		return Period{}, services.Validation("quarter", "quarter must be between 1 and 4")
	}

	start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	if start.After(now) {
		return Period{}, futurePeriod("quarter")
	}
	return Period{
		Label: fmt.Sprintf("Q%d %d", quarter, year),
		Start: start,
		End:   start.AddDate(0, 3, 0),
	}, nil
}

func validateYear(year int) error {
	if year < minReportYear || year > maxReportYear {
		return services.Validation("year", fmt.Sprintf("year must be between %d and %d", minReportYear, maxReportYear))
	}
	return nil
}

func futurePeriod(field string) error {
	return services.NewDomainError(services.ErrorTypeValidation, "cannot generate reports for future periods", services.ErrInvalidPeriod).
		WithDetail("field", field)
}

// MonthlySummary reports on the actor's caseload for one month
func (s *Service) MonthlySummary(ctx context.Context, actor *auth.Principal, month, year int) (*Report, error) {
	period, err := MonthlyPeriod(month, year, s.now())
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, actor, ReportMonthlySummary, period, actor.ID)
}

// QuarterlyOutcome reports on every caseload for one quarter
func (s *Service) QuarterlyOutcome(ctx context.Context, actor *auth.Principal, quarter, year int) (*Report, error) {
	if !actor.HasRole(auth.RoleSupervisor) {
		return nil, services.NewDomainError(services.ErrorTypeForbidden,
			"quarterly outcome reports cover every caseload and require supervisor access", nil).
			WithDetail("scope", "organization").
			WithDetail("required_role", auth.RoleSupervisor.String())
	}
	period, err := QuarterlyPeriod(quarter, year, s.now())
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, actor, ReportQuarterlyOutcome, period, "")
}

func (s *Service) generate(ctx context.Context, actor *auth.Principal, kind ReportType, period Period, workerID string) (*Report, error) {
	stats, err := s.reports.PeriodStats(ctx, workerID, period.Start, period.End)
	if err != nil {
		return nil, services.WrapInternal("failed to aggregate report statistics", err)
	}

	report := &Report{
		ID:           uuid.New(),
		Type:         kind,
		Period:       period,
		Scope:        "caseload",
		Status:       StatusComplete,
		Statistics:   stats,
		GeneratedFor: actor.ID,
		GeneratedAt:  s.now(),
	}
	if workerID == "" {
		report.Scope = "organization"
	}

	switch {
	case stats.Empty():
		report.Status = StatusNoData
		report.NarrativeStatus = NarrativeSkipped
	case s.narrator == nil:
		report.NarrativeStatus = NarrativeDisabled
	default:
		report.Narrative, report.NarrativeStatus = s.narrate(ctx, kind, period, stats, workerID)
	}

	s.logger.Info("report generated",
		zap.String("report_type", string(kind)),
		zap.String("period", period.Label),
		zap.String("status", report.Status),
		zap.String("narrative_status", string(report.NarrativeStatus)),
		zap.String("actor_id", actor.ID))

	s.metrics.ReportGenerated(string(kind), string(report.NarrativeStatus))
	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionReportGenerated,
		ResourceType: resourceType,
		ResourceID:   report.ID,
		Details: map[string]interface{}{
			"report_type":      string(kind),
			"period":           period.Label,
			"status":           report.Status,
			"narrative_status": string(report.NarrativeStatus),
		},
	})
	return report, nil
}

// narrate never fails the report; any error degrades to statistics only
func (s *Service) narrate(ctx context.Context, kind ReportType, period Period, stats *repositories.PeriodStats, workerID string) (string, NarrativeStatus) {
	excerpts, err := s.reports.RecentNoteExcerpts(ctx, workerID, period.Start, period.End, excerptLimit)
	if err != nil {
		s.logger.Warn("failed to load note excerpts for narrative", zap.Error(err))
		excerpts = nil
	}

	text, err := s.narrator.Narrate(ctx, systemPrompt, buildPrompt(kind, period, stats, excerpts))
	if err != nil {
		s.logger.Warn("narrative generation failed",
			zap.String("report_type", string(kind)),
			zap.Error(err))
		return "", NarrativeUnavailable
	}
	return text, NarrativeGenerated
}

const systemPrompt = "You are an assistant for a social services agency. " +
	"Write a concise, professional report narrative for supervisors from the aggregate " +
	"case management statistics provided. Do not invent numbers and do not include " +
	"any personal identifying information."

// buildPrompt renders statistics and redacted excerpts. Personal data is
// removed from every excerpt before it leaves the process.
func buildPrompt(kind ReportType, period Period, stats *repositories.PeriodStats, excerpts []string) string {
	var b strings.Builder

	switch kind {
	case ReportQuarterlyOutcome:
		fmt.Fprintf(&b, "Quarterly outcome report for %s across all caseworkers.\n", period.Label)
		b.WriteString("Summarize client outcomes, trends and areas needing attention.\n\n")
	default:
		fmt.Fprintf(&b, "Monthly case summary for %s.\n", period.Label)
		b.WriteString("Summarize caseload activity, highlights and follow-up needs.\n\n")
	}

	b.WriteString("Statistics:\n")
	fmt.Fprintf(&b, "- total clients: %d\n", stats.TotalClients)
	fmt.Fprintf(&b, "- new clients: %d\n", stats.NewClients)
	fmt.Fprintf(&b, "- active clients: %d\n", stats.ActiveClients)
	fmt.Fprintf(&b, "- closed clients: %d\n", stats.ClosedClients)
	fmt.Fprintf(&b, "- case notes written: %d\n", stats.NotesWritten)
	fmt.Fprintf(&b, "- follow-ups flagged: %d\n", stats.FollowUpsFlagged)
	fmt.Fprintf(&b, "- tasks created: %d\n", stats.TasksCreated)
	fmt.Fprintf(&b, "- tasks completed: %d\n", stats.TasksCompleted)
	fmt.Fprintf(&b, "- tasks overdue: %d\n", stats.TasksOverdue)
	writeBreakdown(&b, "notes by category", stats.NotesByCategory)
	writeBreakdown(&b, "clients by priority", stats.ClientsByPriority)

	if len(excerpts) > 0 {
		b.WriteString("\nRecent case note excerpts:\n")
		for _, e := range excerpts {
			fmt.Fprintf(&b, "- %s\n", truncate(RedactPII(strings.TrimSpace(e)), excerptMaxRunes))
		}
	}
	return b.String()
}

func writeBreakdown(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	fmt.Fprintf(b, "- %s: %s\n", title, strings.Join(parts, ", "))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
