package casenotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/repositories"
	"github.com/DianaTao/solace/repositories/mocks"
	"github.com/DianaTao/solace/services"
	"github.com/DianaTao/solace/services/audit"
	"github.com/google/uuid"
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

var (
	author     = &auth.Principal{ID: "author-1", Role: auth.RoleSocialWorker}
	colleague  = &auth.Principal{ID: "colleague-1", Role: auth.RoleSocialWorker}
	supervisor = &auth.Principal{ID: "super-1", Role: auth.RoleSupervisor}
)

func newService() (*Service, *mocks.CaseNoteRepository, *mocks.ClientRepository, *recordingAuditor) {
	notes := new(mocks.CaseNoteRepository)
	clients := new(mocks.ClientRepository)
	rec := &recordingAuditor{}
	svc := NewService(&repositories.Repositories{CaseNotes: notes, Clients: clients}, rec, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc, notes, clients, rec
}

func confidentialNote() *models.CaseNote {
	n := models.NewCaseNote(uuid.New(), author.ID, "Home visit", "Discussed safety plan")
	n.IsConfidential = true
	return n
}

func TestService_List_FiltersConfidential(t *testing.T) {
	clientID := uuid.New()
	open := models.NewCaseNote(clientID, author.ID, "Intake", "Initial intake")

	tests := []struct {
		name       string
		actor      *auth.Principal
		wantViewer string
	}{
		{"author is limited to own confidential notes", author, author.ID},
		{"colleague is limited to own confidential notes", colleague, colleague.ID},
		{"supervisor sees everything", supervisor, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, notes, _, _ := newService()
			notes.On("List", mock.Anything, models.CaseNoteFilter{ClientID: &clientID, Viewer: tt.wantViewer, Limit: 50}).
				Return([]*models.CaseNote{open}, nil)

			got, err := svc.List(context.Background(), tt.actor, ListRequest{ClientID: &clientID})
			require.NoError(t, err)
			assert.Len(t, got, 1)
			notes.AssertExpectations(t)
		})
	}
}

// pagedNotes pages over a fixed list the way the database does, applying
// the viewer condition before skip and limit.
type pagedNotes struct {
	*mocks.CaseNoteRepository
	all []*models.CaseNote
}

func (p *pagedNotes) List(_ context.Context, f models.CaseNoteFilter) ([]*models.CaseNote, error) {
	var matched []*models.CaseNote
	for _, n := range p.all {
		if f.Viewer != "" && n.IsConfidential && n.SocialWorkerID != f.Viewer {
			continue
		}
		matched = append(matched, n)
	}
	if f.Skip >= len(matched) {
		return []*models.CaseNote{}, nil
	}
	matched = matched[f.Skip:]
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func TestService_List_HiddenNotesDoNotConsumePage(t *testing.T) {
	svc, _, _, _ := newService()
	readable := models.NewCaseNote(uuid.New(), author.ID, "Intake", "Initial intake")
	svc.notes = &pagedNotes{
		CaseNoteRepository: new(mocks.CaseNoteRepository),
		all:                []*models.CaseNote{confidentialNote(), confidentialNote(), readable},
	}

	got, err := svc.List(context.Background(), colleague, ListRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, readable.ID, got[0].ID)

	got, err = svc.List(context.Background(), colleague, ListRequest{Skip: 1, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, got, "skip counts only readable notes")

	got, err = svc.List(context.Background(), supervisor, ListRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_List_InvalidPage(t *testing.T) {
	svc, _, _, _ := newService()

	_, err := svc.List(context.Background(), author, ListRequest{Limit: 500})
	assert.True(t, services.IsValidationError(err))
}

func TestService_Get(t *testing.T) {
	svc, notes, _, _ := newService()
	secret := confidentialNote()
	notes.On("GetByID", mock.Anything, secret.ID).Return(secret, nil)

	got, err := svc.Get(context.Background(), author, secret.ID)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	_, err = svc.Get(context.Background(), colleague, secret.ID)
	assert.ErrorIs(t, err, services.ErrCaseNoteNotFound, "confidential notes are hidden from other workers")

	missing := uuid.New()
	notes.On("GetByID", mock.Anything, missing).Return(nil, repositories.ErrNotFound)
	_, err = svc.Get(context.Background(), supervisor, missing)
	assert.ErrorIs(t, err, services.ErrCaseNoteNotFound)
}

func TestService_Create(t *testing.T) {
	t.Run("creates note for existing client", func(t *testing.T) {
		svc, notes, clients, rec := newService()
		client := models.NewClient("Ana", author.ID)
		clients.On("GetByID", mock.Anything, client.ID).Return(client, nil)
		notes.On("Create", mock.Anything, mock.AnythingOfType("*models.CaseNote")).Return(nil)

		followUp := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)
		note, err := svc.Create(context.Background(), author, CreateRequest{
			ClientID:       client.ID,
			Title:          " Phone check-in ",
			Content:        "Client reports stable housing.",
			IsConfidential: true,
			FollowUpDate:   &followUp,
			IntakeMethod:   models.IntakePhone,
		})
		require.NoError(t, err)
		assert.Equal(t, "Phone check-in", note.Title)
		assert.Equal(t, author.ID, note.SocialWorkerID)
		assert.Equal(t, models.DefaultNoteCategory, note.Category)
		assert.True(t, note.FollowUpRequired, "a follow-up date implies a follow-up")
		assert.Equal(t, models.IntakePhone, note.IntakeMethod)
		require.Len(t, rec.entries, 1)
		assert.Equal(t, models.AuditActionNoteCreated, rec.entries[0].Action)
	})

	t.Run("unknown client", func(t *testing.T) {
		svc, notes, clients, _ := newService()
		id := uuid.New()
		clients.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

		_, err := svc.Create(context.Background(), author, CreateRequest{ClientID: id, Title: "t", Content: "c"})
		assert.ErrorIs(t, err, services.ErrClientNotFound)
		notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("blank content", func(t *testing.T) {
		svc, _, clients, _ := newService()
		client := models.NewClient("Ana", author.ID)
		clients.On("GetByID", mock.Anything, client.ID).Return(client, nil)

		_, err := svc.Create(context.Background(), author, CreateRequest{ClientID: client.ID, Title: "t", Content: "  "})
		assert.True(t, services.IsValidationError(err))
	})
}

func TestService_Update(t *testing.T) {
	t.Run("author edits", func(t *testing.T) {
		svc, notes, _, rec := newService()
		note := models.NewCaseNote(uuid.New(), author.ID, "Intake", "Initial")
		notes.On("GetByID", mock.Anything, note.ID).Return(note, nil)
		notes.On("Update", mock.Anything, note).Return(nil)

		content := "Initial intake, revised"
		got, err := svc.Update(context.Background(), author, note.ID, UpdateRequest{Content: &content})
		require.NoError(t, err)
		assert.Equal(t, content, got.Content)
		assert.Equal(t, svc.now(), got.UpdatedAt)
		require.Len(t, rec.entries, 1)
	})

	t.Run("colleague is forbidden", func(t *testing.T) {
		svc, notes, _, _ := newService()
		note := models.NewCaseNote(uuid.New(), author.ID, "Intake", "Initial")
		notes.On("GetByID", mock.Anything, note.ID).Return(note, nil)

		title := "mine now"
		_, err := svc.Update(context.Background(), colleague, note.ID, UpdateRequest{Title: &title})
		assert.ErrorIs(t, err, services.ErrForbidden)
		notes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("supervisor edits", func(t *testing.T) {
		svc, notes, _, _ := newService()
		note := confidentialNote()
		notes.On("GetByID", mock.Anything, note.ID).Return(note, nil)
		notes.On("Update", mock.Anything, note).Return(nil)

		archived := models.NoteStatusArchived
		got, err := svc.Update(context.Background(), supervisor, note.ID, UpdateRequest{Status: &archived})
		require.NoError(t, err)
		assert.Equal(t, models.NoteStatusArchived, got.Status)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("soft deletes", func(t *testing.T) {
		svc, notes, _, rec := newService()
		note := models.NewCaseNote(uuid.New(), author.ID, "Intake", "Initial")
		notes.On("GetByID", mock.Anything, note.ID).Return(note, nil)
		notes.On("SoftDelete", mock.Anything, note.ID).Return(nil)

		require.NoError(t, svc.Delete(context.Background(), author, note.ID))
		notes.AssertExpectations(t)
		require.Len(t, rec.entries, 1)
		assert.Equal(t, models.AuditActionNoteDeleted, rec.entries[0].Action)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc, notes, _, rec := newService()
		note := models.NewCaseNote(uuid.New(), author.ID, "Intake", "Initial")
		notes.On("GetByID", mock.Anything, note.ID).Return(note, nil)
		notes.On("SoftDelete", mock.Anything, note.ID).Return(errors.New("disk full"))

		err := svc.Delete(context.Background(), author, note.ID)
		assert.True(t, services.IsInternalError(err))
		assert.Empty(t, rec.entries)
	})
}
