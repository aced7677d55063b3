package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/repositories"
	"github.com/DianaTao/solace/repositories/mocks"
	"github.com/DianaTao/solace/services"
	"github.com/DianaTao/solace/services/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAuditor struct {
	entries []audit.Entry
}

func (r *recordingAuditor) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

type stubNarrator struct {
	text    string
	err     error
	prompts []string
}

func (n *stubNarrator) Narrate(_ context.Context, _, prompt string) (string, error) {
	n.prompts = append(n.prompts, prompt)
	return n.text, n.err
}

func (n *stubNarrator) Model() string { return "stub-model" }

var (
	worker     = &auth.Principal{ID: "worker-1", Role: auth.RoleSocialWorker}
	supervisor = &auth.Principal{ID: "super-1", Role: auth.RoleSupervisor}
	fixedNow   = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
)

func newService(narrator Narrator) (*Service, *mocks.ReportRepository, *recordingAuditor) {
	repo := new(mocks.ReportRepository)
	rec := &recordingAuditor{}
	svc := NewService(&repositories.Repositories{Reports: repo}, narrator, rec, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, rec
}

func sampleStats() *repositories.PeriodStats {
	return &repositories.PeriodStats{
		TotalClients:      12,
		NewClients:        3,
		ActiveClients:     9,
		NotesWritten:      20,
		TasksCompleted:    7,
		TasksOverdue:      2,
		NotesByCategory:   map[string]int{"housing": 5, "general": 15},
		ClientsByPriority: map[string]int{"high": 4, "medium": 8},
	}
}

func TestMonthlyPeriod(t *testing.T) {
	p, err := MonthlyPeriod(12, 2023, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, "December 2023", p.Label)

	tests := []struct {
		name        string
		month, year int
		field       string
	}{
		{"month zero", 0, 2024, "month"},
		{"month thirteen", 13, 2024, "month"},
		{"year too early", 6, 2019, "year"},
		{"year too late", 6, 2031, "year"},
		{"future month", 6, 2024, "month"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MonthlyPeriod(tt.month, tt.year, fixedNow)
			require.Error(t, err)
			assert.True(t, services.IsValidationError(err))
			assert.Equal(t, tt.field, services.GetErrorDetails(err)["field"])
		})
	}

	_, err = MonthlyPeriod(5, 2024, fixedNow)
	assert.NoError(t, err, "the current month is reportable")
}

func TestQuarterlyPeriod(t *testing.T) {
	p, err := QuarterlyPeriod(2, 2024, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, "Q2 2024", p.Label)

	_, err = QuarterlyPeriod(3, 2024, fixedNow)
	assert.ErrorIs(t, err, services.ErrInvalidPeriod)

	_, err = QuarterlyPeriod(5, 2024, fixedNow)
	assert.Equal(t, "quarter", services.GetErrorDetails(err)["field"])
}

func TestService_MonthlySummary(t *testing.T) {
	t.Run("statistics with narrative", func(t *testing.T) {
		narrator := &stubNarrator{text: "A steady month."}
		svc, repo, rec := newService(narrator)
		start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

		repo.On("PeriodStats", mock.Anything, worker.ID, start, end).Return(sampleStats(), nil)
		repo.On("RecentNoteExcerpts", mock.Anything, worker.ID, start, end, excerptLimit).
			Return([]string{"Met client, phone 555-123-4567, email ana@example.org"}, nil)

		report, err := svc.MonthlySummary(context.Background(), worker, 4, 2024)
		require.NoError(t, err)

		assert.Equal(t, ReportMonthlySummary, report.Type)
		assert.Equal(t, StatusComplete, report.Status)
		assert.Equal(t, "caseload", report.Scope)
		assert.Equal(t, NarrativeGenerated, report.NarrativeStatus)
		assert.Equal(t, "A steady month.", report.Narrative)
		assert.Equal(t, 12, report.Statistics.TotalClients)

		require.Len(t, narrator.prompts, 1)
		prompt := narrator.prompts[0]
		assert.Contains(t, prompt, "April 2024")
		assert.Contains(t, prompt, "notes by category: general=15, housing=5")
		assert.Contains(t, prompt, "[PHONE_REDACTED]")
		assert.Contains(t, prompt, "[EMAIL_REDACTED]")
		assert.NotContains(t, prompt, "555-123-4567")
		assert.NotContains(t, prompt, "ana@example.org")

		require.Len(t, rec.entries, 1)
		assert.Equal(t, models.AuditActionReportGenerated, rec.entries[0].Action)
		assert.Equal(t, report.ID, rec.entries[0].ResourceID)
	})

	t.Run("no clients means no data", func(t *testing.T) {
		narrator := &stubNarrator{text: "unused"}
		svc, repo, _ := newService(narrator)
		repo.On("PeriodStats", mock.Anything, worker.ID, mock.Anything, mock.Anything).
			Return(&repositories.PeriodStats{}, nil)

		report, err := svc.MonthlySummary(context.Background(), worker, 4, 2024)
		require.NoError(t, err)
		assert.Equal(t, StatusNoData, report.Status)
		assert.Equal(t, NarrativeSkipped, report.NarrativeStatus)
		assert.Empty(t, narrator.prompts)
	})

	t.Run("narrative failure degrades", func(t *testing.T) {
		narrator := &stubNarrator{err: errors.New("upstream 503")}
		svc, repo, _ := newService(narrator)
		repo.On("PeriodStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(sampleStats(), nil)
		repo.On("RecentNoteExcerpts", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("timeout"))

		report, err := svc.MonthlySummary(context.Background(), worker, 4, 2024)
		require.NoError(t, err)
		assert.Equal(t, StatusComplete, report.Status)
		assert.Equal(t, NarrativeUnavailable, report.NarrativeStatus)
		assert.Empty(t, report.Narrative)
		assert.False(t, strings.Contains(narrator.prompts[0], "excerpts"))
	})

	t.Run("narrative disabled", func(t *testing.T) {
		svc, repo, _ := newService(nil)
		repo.On("PeriodStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(sampleStats(), nil)

		report, err := svc.MonthlySummary(context.Background(), worker, 4, 2024)
		require.NoError(t, err)
		assert.Equal(t, NarrativeDisabled, report.NarrativeStatus)
		repo.AssertNotCalled(t, "RecentNoteExcerpts", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("statistics failure", func(t *testing.T) {
		svc, repo, rec := newService(nil)
		repo.On("PeriodStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection reset"))

		_, err := svc.MonthlySummary(context.Background(), worker, 4, 2024)
		assert.True(t, services.IsInternalError(err))
		assert.Empty(t, rec.entries)
	})

	t.Run("future month", func(t *testing.T) {
		svc, repo, _ := newService(nil)
		_, err := svc.MonthlySummary(context.Background(), worker, 7, 2024)
		assert.True(t, services.IsValidationError(err))
		repo.AssertNotCalled(t, "PeriodStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_QuarterlyOutcome(t *testing.T) {
	t.Run("requires supervisor", func(t *testing.T) {
		svc, _, _ := newService(nil)
		_, err := svc.QuarterlyOutcome(context.Background(), worker, 1, 2024)
		assert.ErrorIs(t, err, services.ErrInsufficientPermissions)
		assert.True(t, services.IsForbiddenError(err))
		details := services.GetErrorDetails(err)
		assert.Equal(t, "organization", details["scope"])
		assert.Equal(t, "supervisor", details["required_role"])
	})

	t.Run("aggregates every caseload", func(t *testing.T) {
		svc, repo, _ := newService(nil)
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		repo.On("PeriodStats", mock.Anything, "", start, end).Return(sampleStats(), nil)

		report, err := svc.QuarterlyOutcome(context.Background(), supervisor, 1, 2024)
		require.NoError(t, err)
		assert.Equal(t, ReportQuarterlyOutcome, report.Type)
		assert.Equal(t, "organization", report.Scope)
		repo.AssertExpectations(t)
	})
}

func TestService_Status(t *testing.T) {
	svc, _, _ := newService(&stubNarrator{})
	status := svc.Status()
	assert.True(t, status.NarrativeEnabled)
	assert.Equal(t, "stub-model", status.Model)
	assert.Len(t, status.Reports, 2)

	svc, _, _ = newService(nil)
	assert.False(t, svc.Status().NarrativeEnabled)
}

func TestService_Catalog(t *testing.T) {
	svc, _, _ := newService(nil)

	tests := []struct {
		name          string
		actor         *auth.Principal
		wantQuarterly bool
	}{
		{"social worker", worker, false},
		{"supervisor", supervisor, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := svc.Catalog(tt.actor)
			require.Len(t, c.Reports, 2)
			assert.Equal(t, tt.actor.DisplayName, c.User)
			assert.False(t, c.NarrativeEnabled)

			assert.Equal(t, ReportMonthlySummary, c.Reports[0].Type)
			assert.True(t, c.Reports[0].Available)
			assert.Equal(t, ReportQuarterlyOutcome, c.Reports[1].Type)
			assert.Equal(t, "organization", c.Reports[1].Scope)
			assert.Equal(t, tt.wantQuarterly, c.Reports[1].Available)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hé...", truncate("héllo", 2))
}
