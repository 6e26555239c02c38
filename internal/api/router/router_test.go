package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuongbtq/jobboard/internal/api/handler"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(ctx context.Context) error { return f.err }

// emptyStore answers every lookup with not found and every list with nothing
type emptyStore struct{}

func (emptyStore) CreateJob(ctx context.Context, job domain.JobPosting) (*domain.JobPosting, error) {
	return nil, errors.New("read only")
}

func (emptyStore) GetJobByID(ctx context.Context, id string) (*domain.JobPosting, error) {
	return nil, domain.ErrJobNotFound
}

func (emptyStore) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.JobPosting, error) {
	return nil, nil
}

func (emptyStore) UpdateJob(ctx context.Context, id string, patch domain.JobPatch) (*domain.JobPosting, error) {
	return nil, domain.ErrJobNotFound
}

func (emptyStore) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.JobPosting, error) {
	return nil, domain.ErrJobNotFound
}

func (emptyStore) DeleteJob(ctx context.Context, id string) error {
	return domain.ErrJobNotFound
}

func (emptyStore) Stats(ctx context.Context) (*domain.JobStats, error) {
	return &domain.JobStats{}, nil
}

func (emptyStore) ListJobEvents(ctx context.Context, jobID string) ([]events.JobEvent, error) {
	return nil, nil
}

func newRouter(health handler.HealthChecker) *gin.Engine {
	return SetupRouter(&handler.Dependencies{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  emptyStore{},
		Health: health,
	})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		health     handler.HealthChecker
		wantStatus int
		wantBody   string
	}{
		{name: "database reachable", health: fakeHealth{}, wantStatus: http.StatusOK, wantBody: "healthy"},
		{name: "database down", health: fakeHealth{err: errors.New("dial tcp: refused")}, wantStatus: http.StatusServiceUnavailable, wantBody: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newRouter(tt.health), httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tt.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
			assert.Equal(t, "job-api-service", body["service"])
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(fakeHealth{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	w = serve(r, req)
	assert.Equal(t, "trace-42", w.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	w := serve(newRouter(fakeHealth{}), httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRoutes(t *testing.T) {
	const id = "5b0f6a5e-4a3b-4a8e-9f4e-3b2f1c0d9e8a"

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/api/v1/jobs", http.StatusOK},
		{http.MethodGet, "/api/v1/jobs/" + id, http.StatusNotFound},
		{http.MethodPatch, "/api/v1/jobs/" + id, http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/jobs/" + id, http.StatusNotFound},
		{http.MethodPost, "/api/v1/jobs/" + id + "/close", http.StatusNotFound},
		{http.MethodPost, "/api/v1/jobs/" + id + "/reopen", http.StatusNotFound},
		{http.MethodGet, "/api/v1/jobs/" + id + "/events", http.StatusNotFound},
		{http.MethodGet, "/api/v1/dashboard/stats", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	r := newRouter(fakeHealth{})
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
