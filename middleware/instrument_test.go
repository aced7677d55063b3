package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DianaTao/solace/services/audit"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type observation struct {
	method string
	route  string
	status int
}

type recordingMetrics struct {
	seen []observation
}

func (m *recordingMetrics) ObserveHTTP(method, route string, status int, _ time.Duration) {
	m.seen = append(m.seen, observation{method, route, status})
}

func TestInstrument(t *testing.T) {
	metrics := &recordingMetrics{}
	r := chi.NewRouter()
	r.Use(Instrument(metrics, zap.NewNop()))
	r.Get("/api/clients/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/clients/42", "/api/health", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, metrics.seen, 3)
	assert.Equal(t, observation{"GET", "/api/clients/{id}", 404}, metrics.seen[0])
	assert.Equal(t, observation{"GET", "/api/health", 200}, metrics.seen[1])
	assert.Equal(t, observation{"GET", "unmatched", 404}, metrics.seen[2])
}

func TestRequestMeta(t *testing.T) {
	var got audit.RequestMeta
	h := chimw.RequestID(RequestMeta(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.RequestMetaFrom(r.Context())
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/clients", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	req.Header.Set("User-Agent", "caseworker-app/1.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, "192.0.2.10", got.IPAddress)
	assert.Equal(t, "caseworker-app/1.0", got.UserAgent)
}
