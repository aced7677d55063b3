package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DianaTao/solace/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestAuditHandler_ResourceTrail(t *testing.T) {
	id := uuid.New()

	t.Run("returns trail", func(t *testing.T) {
		reader := new(MockAuditReader)
		h := NewAuditHandler(reader, zap.NewNop())
		reader.On("Trail", mock.Anything, "client", id, 20, 40).Return([]*models.AuditLog{
			{ID: uuid.New(), ActorID: worker.ID, Action: models.AuditActionClientUpdated, ResourceType: "client", ResourceID: &id},
		}, nil)

		req := withURLParams(httptest.NewRequest(http.MethodGet, "/?limit=20&skip=40", nil),
			map[string]string{"resourceType": "client", "id": id.String()})
		w := httptest.NewRecorder()
		h.HandleResourceTrail(w, withPrincipal(req, supervisor))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "client_updated")
		reader.AssertExpectations(t)
	})

	t.Run("unknown resource type", func(t *testing.T) {
		reader := new(MockAuditReader)
		h := NewAuditHandler(reader, zap.NewNop())

		req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil),
			map[string]string{"resourceType": "profiles", "id": id.String()})
		w := httptest.NewRecorder()
		h.HandleResourceTrail(w, withPrincipal(req, supervisor))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		reader := new(MockAuditReader)
		h := NewAuditHandler(reader, zap.NewNop())
		reader.On("Trail", mock.Anything, "task", id, 100, 0).Return(nil, errors.New("pq: timeout"))

		req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil),
			map[string]string{"resourceType": "task", "id": id.String()})
		w := httptest.NewRecorder()
		h.HandleResourceTrail(w, withPrincipal(req, supervisor))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestAuditHandler_ActorHistory(t *testing.T) {
	reader := new(MockAuditReader)
	h := NewAuditHandler(reader, zap.NewNop())
	reader.On("ActorHistory", mock.Anything, "worker-1", 100, 0).Return([]*models.AuditLog{}, nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"actorID": "worker-1"})
	w := httptest.NewRecorder()
	h.HandleActorHistory(w, withPrincipal(req, supervisor))

	assert.Equal(t, http.StatusOK, w.Code)
	reader.AssertExpectations(t)
}
