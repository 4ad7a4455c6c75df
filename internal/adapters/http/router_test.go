package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

type fakeSearcher struct {
	lastRequest domain.SearchRequest
	result      *domain.SearchResult
	err         error

	similarJobID int64
	similarTopK  int
}

func (f *fakeSearcher) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSearcher) SimilarJobs(_ context.Context, jobID int64, topK int) (*domain.SearchResult, error) {
	f.similarJobID = jobID
	f.similarTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeReader struct {
	job *domain.RankedJob
	err error
}

func (f *fakeReader) JobByID(_ context.Context, jobID int64) (*domain.RankedJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

func testResult() *domain.SearchResult {
	return &domain.SearchResult{
		Query:    "python",
		Method:   domain.MethodHybrid,
		Strategy: domain.StrategyExactMatch,
		Results: []domain.RankedJob{
			{Rank: 1, Job: domain.Job{ID: 42, Title: "Senior Python Developer"}},
		},
	}
}

func newTestRouter(searcher *fakeSearcher, reader *fakeReader) http.Handler {
	rt := NewRouter(searcher, reader, nil, RouterConfig{
		Service:           "api",
		DefaultTopK:       10,
		FallbackByDefault: true,
	})
	return rt.Handler()
}

func TestSearchEndpointReturnsResults(t *testing.T) {
	searcher := &fakeSearcher{result: testResult()}
	handler := newTestRouter(searcher, &fakeReader{})

	body := bytes.NewBufferString(`{"query": "python", "top_k": 5, "method": "hybrid"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/search", body)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Request-Id"); got == "" {
		t.Fatalf("expected X-Request-Id header to be set")
	}

	var result domain.SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Results) != 1 || result.Results[0].Job.ID != 42 {
		t.Fatalf("unexpected result payload: %+v", result)
	}

	if searcher.lastRequest.TopK != 5 {
		t.Fatalf("expected top_k 5 to pass through, got %d", searcher.lastRequest.TopK)
	}
	if searcher.lastRequest.Method != domain.MethodHybrid {
		t.Fatalf("expected hybrid method, got %q", searcher.lastRequest.Method)
	}
	if !searcher.lastRequest.EnableFallback {
		t.Fatalf("expected fallback enabled by default")
	}
}

func TestSearchEndpointDefaultsTopKAndMethod(t *testing.T) {
	searcher := &fakeSearcher{result: testResult()}
	handler := newTestRouter(searcher, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewBufferString(`{"query": "python"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if searcher.lastRequest.TopK != 10 {
		t.Fatalf("expected default top_k 10, got %d", searcher.lastRequest.TopK)
	}
	if searcher.lastRequest.Method != domain.MethodHybrid {
		t.Fatalf("expected default hybrid method, got %q", searcher.lastRequest.Method)
	}
}

func TestSearchEndpointHonorsExplicitFallbackOverride(t *testing.T) {
	searcher := &fakeSearcher{result: testResult()}
	handler := newTestRouter(searcher, &fakeReader{})

	body := bytes.NewBufferString(`{"query": "python", "enable_fallback": false}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/search", body)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if searcher.lastRequest.EnableFallback {
		t.Fatalf("expected fallback disabled by request override")
	}
}

func TestSearchEndpointRejectsInvalidJSON(t *testing.T) {
	handler := newTestRouter(&fakeSearcher{result: testResult()}, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewBufferString(`{"query": `))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestSearchEndpointRejectsUnknownMethod(t *testing.T) {
	handler := newTestRouter(&fakeSearcher{result: testResult()}, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewBufferString(`{"query": "x", "method": "semantic"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown method, got %d", rec.Code)
	}
}

func TestSearchEndpointRejectsGet(t *testing.T) {
	handler := newTestRouter(&fakeSearcher{result: testResult()}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestSearchEndpointMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "invalid input",
			err:        domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("bad salary range")),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "index not ready",
			err:        domain.ErrIndexNotReady,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "temporary",
			err:        domain.WrapError(domain.ErrTemporary, "embed", fmt.Errorf("upstream 502")),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unclassified",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestRouter(&fakeSearcher{err: tt.err}, &fakeReader{})

			req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewBufferString(`{"query": "python"}`))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestJobByIDEndpoint(t *testing.T) {
	reader := &fakeReader{job: &domain.RankedJob{Job: domain.Job{ID: 42, Title: "Senior Python Developer"}}}
	handler := newTestRouter(&fakeSearcher{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/42", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var job domain.RankedJob
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if job.Job.ID != 42 {
		t.Fatalf("expected job 42, got %d", job.Job.ID)
	}
}

func TestJobByIDEndpointRejectsNonNumericID(t *testing.T) {
	handler := newTestRouter(&fakeSearcher{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestJobByIDEndpointReturnsNotFound(t *testing.T) {
	reader := &fakeReader{err: domain.WrapError(domain.ErrJobNotFound, "job by id", fmt.Errorf("job 999"))}
	handler := newTestRouter(&fakeSearcher{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/999", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestSimilarJobsEndpoint(t *testing.T) {
	searcher := &fakeSearcher{result: testResult()}
	handler := newTestRouter(searcher, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/42/similar?top_k=3", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if searcher.similarJobID != 42 {
		t.Fatalf("expected similar lookup for job 42, got %d", searcher.similarJobID)
	}
	if searcher.similarTopK != 3 {
		t.Fatalf("expected top_k 3, got %d", searcher.similarTopK)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestRouter(&fakeSearcher{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
