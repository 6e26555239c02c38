package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/ingest"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	mu     sync.Mutex
	jobs   map[string]domain.JobPosting
	events map[string][]events.JobEvent
	clock  time.Time
	err    error
}

func newMemStore() *memStore {
	return &memStore{
		jobs:   map[string]domain.JobPosting{},
		events: map[string][]events.JobEvent{},
		clock:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) CreateJob(ctx context.Context, job domain.JobPosting) (*domain.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	s.clock = s.clock.Add(time.Minute)
	job.ID = uuid.New().String()
	job.Status = domain.StatusActive
	job.ApplicantCount = 0
	job.CreatedAt = s.clock
	s.jobs[job.ID] = job
	return &job, nil
}

func (s *memStore) GetJobByID(ctx context.Context, id string) (*domain.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

func (s *memStore) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	var out []domain.JobPosting
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.After != nil && !job.CreatedAt.Before(filter.After.CreatedAt) {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit+1 {
		out = out[:filter.Limit+1]
	}
	return out, nil
}

func (s *memStore) UpdateJob(ctx context.Context, id string, patch domain.JobPatch) (*domain.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if patch.Title != nil {
		job.Title = *patch.Title
	}
	if patch.Location != nil {
		job.Location = *patch.Location
	}
	if patch.Requirements != nil {
		job.Requirements = *patch.Requirements
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	s.jobs[id] = job
	return &job, nil
}

func (s *memStore) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.JobPosting, error) {
	return s.UpdateJob(ctx, id, domain.JobPatch{Status: &status})
}

func (s *memStore) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return domain.ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *memStore) Stats(ctx context.Context) (*domain.JobStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var stats domain.JobStats
	for _, job := range s.jobs {
		stats.Total++
		stats.TotalApplicants += job.ApplicantCount
		if job.Status == domain.StatusActive {
			stats.Active++
		} else {
			stats.Closed++
		}
	}
	return &stats, nil
}

func (s *memStore) ListJobEvents(ctx context.Context, jobID string) ([]events.JobEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[jobID], nil
}

func (s *memStore) put(job domain.JobPosting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

type fakeIngester struct {
	got ingest.Upload
	job *domain.JobPosting
	err error
}

func (f *fakeIngester) Run(ctx context.Context, upload ingest.Upload) (*domain.JobPosting, error) {
	f.got = upload
	if f.err != nil {
		return nil, f.err
	}
	if len(upload.Data) == 0 {
		return nil, &ingest.Error{Kind: ingest.KindValidation, Message: ingest.MsgNoFile}
	}
	return f.job, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.JobEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.JobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type testServer struct {
	engine    *gin.Engine
	store     *memStore
	ingester  *fakeIngester
	publisher *recordingPublisher
}

func newTestServer(maxUpload int64) *testServer {
	ts := &testServer{
		store:     newMemStore(),
		ingester:  &fakeIngester{},
		publisher: &recordingPublisher{},
	}

	h := NewJobHandler(&Dependencies{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:         ts.store,
		Ingester:      ts.ingester,
		Publisher:     ts.publisher,
		MaxUploadSize: maxUpload,
	})

	r := gin.New()
	r.POST("/jobs", h.CreateJob)
	r.POST("/jobs/upload", h.UploadJob)
	r.GET("/jobs", h.ListJobs)
	r.GET("/jobs/:id", h.GetJob)
	r.PATCH("/jobs/:id", h.UpdateJob)
	r.DELETE("/jobs/:id", h.DeleteJob)
	r.POST("/jobs/:id/close", h.CloseJob)
	r.POST("/jobs/:id/reopen", h.ReopenJob)
	r.GET("/jobs/:id/events", h.ListJobEvents)
	r.GET("/dashboard/stats", h.DashboardStats)
	ts.engine = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func validCreateBody() map[string]any {
	return map[string]any{
		"title":        "Software Engineer",
		"company":      "TechCorp",
		"location":     "San Francisco, CA",
		"salary":       "$120k - $150k",
		"description":  "Build things",
		"requirements": "Go\n\n  SQL  \nDocker",
		"benefits":     []string{"Health insurance", " 401(k) "},
	}
}

func TestCreateJob(t *testing.T) {
	ts := newTestServer(0)

	body := validCreateBody()
	body["status"] = "closed"
	body["applicantCount"] = 42

	w := ts.do(t, http.MethodPost, "/jobs", body)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.JobResponse](t, w)
	assert.Equal(t, "Job created successfully", resp.Message)
	assert.NotEmpty(t, resp.Job.ID)
	assert.Equal(t, "active", resp.Job.Status)
	assert.Equal(t, 0, resp.Job.ApplicantCount)
	assert.Equal(t, []string{"Go", "SQL", "Docker"}, resp.Job.Requirements)
	assert.Equal(t, []string{"Health insurance", "401(k)"}, resp.Job.Benefits)

	assert.Equal(t, []events.Type{events.TypeJobCreated}, ts.publisher.types())
	assert.Equal(t, events.SourceManual, ts.publisher.events[0].Source)

	// reading it back returns the same record
	got := ts.do(t, http.MethodGet, "/jobs/"+resp.Job.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, resp.Job, decode[dto.JobDTO](t, got))
}

func TestCreateJob_MissingField(t *testing.T) {
	tests := []struct {
		field   string
		replace any
	}{
		{field: "title", replace: "  "},
		{field: "company", replace: nil},
		{field: "location", replace: ""},
		{field: "description", replace: nil},
		{field: "requirements", replace: []string{}},
		{field: "benefits", replace: "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			ts := newTestServer(0)

			body := validCreateBody()
			if tt.replace == nil {
				delete(body, tt.field)
			} else {
				body[tt.field] = tt.replace
			}

			w := ts.do(t, http.MethodPost, "/jobs", body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Missing required field: "+tt.field, decode[dto.ErrorResponse](t, w).Error)
			assert.Empty(t, ts.store.jobs)
			assert.Empty(t, ts.publisher.types())
		})
	}
}

func TestCreateJob_InvalidBody(t *testing.T) {
	ts := newTestServer(0)

	w := ts.do(t, http.MethodPost, "/jobs", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode[dto.ErrorResponse](t, w).Error)
}

func TestCreateJob_StoreFailure(t *testing.T) {
	ts := newTestServer(0)
	ts.store.err = errors.New("connection refused")

	w := ts.do(t, http.MethodPost, "/jobs", validCreateBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to create job", decode[dto.ErrorResponse](t, w).Error)
	assert.Empty(t, ts.publisher.types())
}

func TestCreateJob_PublishFailureIsIgnored(t *testing.T) {
	ts := newTestServer(0)
	ts.publisher.err = errors.New("broker down")

	w := ts.do(t, http.MethodPost, "/jobs", validCreateBody())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, ts.store.jobs, 1)
}

func multipartBody(t *testing.T, contentType string, data []byte, model string) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if data != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="job.pdf"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	if model != "" {
		require.NoError(t, mw.WriteField("model", model))
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadJob(t *testing.T) {
	ts := newTestServer(0)
	ts.ingester.job = &domain.JobPosting{
		ID:        uuid.New().String(),
		Title:     "Senior Backend Engineer",
		Company:   "Acme Corp",
		Location:  "Remote",
		Status:    domain.StatusActive,
		CreatedAt: time.Now().UTC(),
	}

	body, contentType := multipartBody(t, "application/pdf", []byte("%PDF-1.4 sample"), "gpt-4")
	req := httptest.NewRequest(http.MethodPost, "/jobs/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.JobResponse](t, w)
	assert.Equal(t, "Job description processed successfully", resp.Message)
	assert.Equal(t, "Acme Corp", resp.Job.Company)
	assert.Equal(t, "Remote", resp.Job.Location)

	assert.Equal(t, "job.pdf", ts.ingester.got.Filename)
	assert.Equal(t, "application/pdf", ts.ingester.got.ContentType)
	assert.Equal(t, "gpt-4", ts.ingester.got.ModelHint)
	assert.Equal(t, int64(15), ts.ingester.got.Size)
	assert.Equal(t, []byte("%PDF-1.4 sample"), ts.ingester.got.Data)

	require.Len(t, ts.publisher.events, 1)
	assert.Equal(t, events.SourceUpload, ts.publisher.events[0].Source)
	assert.Equal(t, "job.pdf", ts.publisher.events[0].Details["filename"])
}

func TestUploadJob_Failures(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		ingestErr   error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "no file",
			wantStatus:  http.StatusBadRequest,
			wantMessage: ingest.MsgNoFile,
		},
		{
			name:        "rejected content",
			data:        []byte("%PDF-1.4"),
			ingestErr:   &ingest.Error{Kind: ingest.KindRejectedContent, Message: ingest.MsgRejectedContent},
			wantStatus:  http.StatusBadRequest,
			wantMessage: ingest.MsgRejectedContent,
		},
		{
			name:        "provider unavailable",
			data:        []byte("%PDF-1.4"),
			ingestErr:   &ingest.Error{Kind: ingest.KindServiceUnavailable, Message: ingest.MsgServiceUnavailable},
			wantStatus:  http.StatusServiceUnavailable,
			wantMessage: ingest.MsgServiceUnavailable,
		},
		{
			name:        "timeout",
			data:        []byte("%PDF-1.4"),
			ingestErr:   &ingest.Error{Kind: ingest.KindTimeout, Message: ingest.MsgTimeout},
			wantStatus:  http.StatusRequestTimeout,
			wantMessage: ingest.MsgTimeout,
		},
		{
			name:        "untyped failure",
			data:        []byte("%PDF-1.4"),
			ingestErr:   errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: ingest.MsgProcessingFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(0)
			ts.ingester.err = tt.ingestErr

			body, contentType := multipartBody(t, "application/pdf", tt.data, "")
			req := httptest.NewRequest(http.MethodPost, "/jobs/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			ts.engine.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMessage, decode[dto.ErrorResponse](t, w).Error)
			assert.Empty(t, ts.publisher.types())
		})
	}
}

func TestUploadJob_BodyTooLarge(t *testing.T) {
	ts := newTestServer(16)

	body, contentType := multipartBody(t, "application/pdf", bytes.Repeat([]byte("x"), multipartOverhead+64), "")
	req := httptest.NewRequest(http.MethodPost, "/jobs/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ingest.MsgTooLarge, decode[dto.ErrorResponse](t, w).Error)
}

func seedJobs(ts *testServer) []domain.JobPosting {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []domain.JobPosting{
		{ID: uuid.New().String(), Title: "A", Company: "C", Location: "L", Description: "D", Status: domain.StatusActive, CreatedAt: base.Add(3 * time.Hour), ApplicantCount: 4},
		{ID: uuid.New().String(), Title: "B", Company: "C", Location: "L", Description: "D", Status: domain.StatusClosed, CreatedAt: base.Add(2 * time.Hour), ApplicantCount: 1},
		{ID: uuid.New().String(), Title: "C", Company: "C", Location: "L", Description: "D", Status: domain.StatusActive, CreatedAt: base.Add(1 * time.Hour), ApplicantCount: 2},
	}
	for _, job := range jobs {
		ts.store.put(job)
	}
	return jobs
}

func titles(resp dto.ListJobsResponse) []string {
	out := make([]string, len(resp.Jobs))
	for i, job := range resp.Jobs {
		out[i] = job.Title
	}
	return out
}

func TestListJobs(t *testing.T) {
	ts := newTestServer(0)
	seedJobs(ts)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTitles []string
		wantMore   bool
	}{
		{name: "all newest first", query: "", wantStatus: http.StatusOK, wantTitles: []string{"A", "B", "C"}},
		{name: "active only", query: "?status=active", wantStatus: http.StatusOK, wantTitles: []string{"A", "C"}},
		{name: "closed only", query: "?status=CLOSED", wantStatus: http.StatusOK, wantTitles: []string{"B"}},
		{name: "first page", query: "?page_size=2", wantStatus: http.StatusOK, wantTitles: []string{"A", "B"}, wantMore: true},
		{name: "invalid status", query: "?status=draft", wantStatus: http.StatusBadRequest},
		{name: "negative page size", query: "?page_size=-1", wantStatus: http.StatusBadRequest},
		{name: "bad cursor", query: "?cursor=!!not-base64", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, "/jobs"+tt.query, nil)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			resp := decode[dto.ListJobsResponse](t, w)
			assert.Equal(t, tt.wantTitles, titles(resp))
			assert.Equal(t, tt.wantMore, resp.NextCursor != "")
		})
	}
}

func TestListJobs_FollowsCursor(t *testing.T) {
	ts := newTestServer(0)
	seedJobs(ts)

	first := decode[dto.ListJobsResponse](t, ts.do(t, http.MethodGet, "/jobs?page_size=2", nil))
	require.NotEmpty(t, first.NextCursor)

	second := decode[dto.ListJobsResponse](t, ts.do(t, http.MethodGet, "/jobs?page_size=2&cursor="+first.NextCursor, nil))
	assert.Equal(t, []string{"C"}, titles(second))
	assert.Empty(t, second.NextCursor)
}

func TestGetJob_NotFound(t *testing.T) {
	ts := newTestServer(0)

	w := ts.do(t, http.MethodGet, "/jobs/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Job not found", decode[dto.ErrorResponse](t, w).Error)
}

func TestUpdateJob(t *testing.T) {
	ts := newTestServer(0)
	jobs := seedJobs(ts)

	tests := []struct {
		name        string
		id          string
		body        any
		wantStatus  int
		wantError   string
		wantPublish bool
	}{
		{
			name:        "partial edit",
			id:          jobs[0].ID,
			body:        map[string]any{"title": "Staff Engineer", "requirements": "Go\nRust"},
			wantStatus:  http.StatusOK,
			wantPublish: true,
		},
		{
			name:       "blank title",
			id:         jobs[0].ID,
			body:       map[string]any{"title": " "},
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required field: title",
		},
		{
			name:       "invalid status",
			id:         jobs[0].ID,
			body:       map[string]any{"status": "archived"},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInvalidStatus.Error(),
		},
		{
			name:       "unknown id",
			id:         uuid.New().String(),
			body:       map[string]any{"title": "x"},
			wantStatus: http.StatusNotFound,
			wantError:  "Job not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.publisher.events = nil

			w := ts.do(t, http.MethodPatch, "/jobs/"+tt.id, tt.body)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[dto.ErrorResponse](t, w).Error)
			}
			if tt.wantPublish {
				require.Len(t, ts.publisher.events, 1)
				assert.Equal(t, events.TypeJobUpdated, ts.publisher.events[0].Type)
				assert.Equal(t, "title,requirements", ts.publisher.events[0].Details["fields"])
			} else {
				assert.Empty(t, ts.publisher.events)
			}
		})
	}

	updated := decode[dto.JobDTO](t, ts.do(t, http.MethodGet, "/jobs/"+jobs[0].ID, nil))
	assert.Equal(t, "Staff Engineer", updated.Title)
	assert.Equal(t, []string{"Go", "Rust"}, updated.Requirements)
	assert.Equal(t, "L", updated.Location)
}

func TestCloseAndReopenJob(t *testing.T) {
	ts := newTestServer(0)
	jobs := seedJobs(ts)

	w := ts.do(t, http.MethodPost, "/jobs/"+jobs[0].ID+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "closed", decode[dto.JobResponse](t, w).Job.Status)

	w = ts.do(t, http.MethodPost, "/jobs/"+jobs[0].ID+"/reopen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", decode[dto.JobResponse](t, w).Job.Status)

	require.Len(t, ts.publisher.events, 2)
	assert.Equal(t, "closed", ts.publisher.events[0].Details["status"])
	assert.Equal(t, "active", ts.publisher.events[1].Details["status"])

	w = ts.do(t, http.MethodPost, "/jobs/"+uuid.New().String()+"/close", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteJob(t *testing.T) {
	ts := newTestServer(0)
	jobs := seedJobs(ts)

	w := ts.do(t, http.MethodDelete, "/jobs/"+jobs[1].ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, []events.Type{events.TypeJobDeleted}, ts.publisher.types())

	w = ts.do(t, http.MethodDelete, "/jobs/"+jobs[1].ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobEvents(t *testing.T) {
	ts := newTestServer(0)
	jobs := seedJobs(ts)

	deletedID := uuid.New().String()
	ts.store.events[jobs[0].ID] = []events.JobEvent{
		events.NewJobEvent(jobs[0].ID, events.TypeJobCreated, events.SourceManual, nil),
		events.NewJobEvent(jobs[0].ID, events.TypeJobStatusChanged, events.SourceManual, map[string]string{"status": "closed"}),
	}
	ts.store.events[deletedID] = []events.JobEvent{
		events.NewJobEvent(deletedID, events.TypeJobDeleted, events.SourceManual, nil),
	}

	type eventsResponse struct {
		Events []dto.JobEventDTO `json:"events"`
	}

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantTypes  []string
	}{
		{name: "recorded history", id: jobs[0].ID, wantStatus: http.StatusOK, wantTypes: []string{"job.created", "job.status_changed"}},
		{name: "existing job without history", id: jobs[1].ID, wantStatus: http.StatusOK, wantTypes: []string{}},
		{name: "deleted job keeps history", id: deletedID, wantStatus: http.StatusOK, wantTypes: []string{"job.deleted"}},
		{name: "unknown job", id: uuid.New().String(), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, "/jobs/"+tt.id+"/events", nil)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			resp := decode[eventsResponse](t, w)
			got := make([]string, len(resp.Events))
			for i, ev := range resp.Events {
				got[i] = ev.Type
			}
			assert.Equal(t, tt.wantTypes, got)
		})
	}
}

func TestDashboardStats(t *testing.T) {
	ts := newTestServer(0)
	seedJobs(ts)

	w := ts.do(t, http.MethodGet, "/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.StatsResponse{Total: 3, Active: 2, Closed: 1, TotalApplicants: 7}, decode[dto.StatsResponse](t, w))

	ts.store.err = errors.New("timeout")
	w = ts.do(t, http.MethodGet, "/dashboard/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestJobCursorRoundTrip(t *testing.T) {
	cursor := &domain.JobCursor{
		CreatedAt: time.Date(2023, 10, 15, 9, 30, 0, 123456000, time.UTC),
		ID:        uuid.New().String(),
	}

	decoded, err := DecodeJobCursor(EncodeJobCursor(cursor))
	require.NoError(t, err)
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.ID, decoded.ID)

	empty, err := DecodeJobCursor("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	for _, bad := range []string{"!!", "bm8tc2VwYXJhdG9y", "YWJjfHh5eg"} {
		_, err := DecodeJobCursor(bad)
		assert.Error(t, err, bad)
	}
}
