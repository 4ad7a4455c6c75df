package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/jobmatch/internal/core/domain"
	"github.com/kirillkom/jobmatch/internal/core/ports"
	"github.com/kirillkom/jobmatch/internal/observability/metrics"
)

type RouterConfig struct {
	Service           string
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxConcurrent     int
	BackpressureWait  time.Duration
	DefaultTopK       int
	FallbackByDefault bool
}

type Router struct {
	searcher ports.JobSearcher
	reader   ports.JobReader
	metrics  *metrics.HTTPServerMetrics
	cfg      RouterConfig
}

func NewRouter(searcher ports.JobSearcher, reader ports.JobReader, m *metrics.HTTPServerMetrics, cfg RouterConfig) *Router {
	if cfg.Service == "" {
		cfg.Service = "api"
	}
	return &Router{
		searcher: searcher,
		reader:   reader,
		metrics:  m,
		cfg:      cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/jobs/", rt.jobRoutes)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.MaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.MaxConcurrent, rt.cfg.BackpressureWait)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	return observabilityMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequestBody struct {
	Query          string         `json:"query"`
	TopK           int            `json:"top_k"`
	Method         string         `json:"method"`
	Filters        domain.Filters `json:"filters"`
	EnableFallback *bool          `json:"enable_fallback"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	method, err := domain.ParseSearchMethod(body.Method)
	if err != nil {
		writeError(w, err)
		return
	}

	enableFallback := rt.cfg.FallbackByDefault
	if body.EnableFallback != nil {
		enableFallback = *body.EnableFallback
	}
	topK := body.TopK
	if topK <= 0 {
		topK = rt.cfg.DefaultTopK
	}

	started := time.Now()
	result, err := rt.searcher.Search(r.Context(), domain.SearchRequest{
		Query:          body.Query,
		TopK:           topK,
		Method:         method,
		Filters:        body.Filters,
		EnableFallback: enableFallback,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordSearch(rt.cfg.Service, string(result.Method), string(result.Strategy),
			len(result.Results), time.Since(started))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) jobRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	if id, ok := strings.CutSuffix(rest, "/similar"); ok {
		rt.similarJobs(w, r, id)
		return
	}
	rt.jobByID(w, r, rest)
}

func (rt *Router) jobByID(w http.ResponseWriter, r *http.Request, rawID string) {
	jobID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id must be an integer"})
		return
	}

	job, err := rt.reader.JobByID(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (rt *Router) similarJobs(w http.ResponseWriter, r *http.Request, rawID string) {
	jobID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id must be an integer"})
		return
	}

	topK := rt.cfg.DefaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			topK = parsed
		}
	}

	result, err := rt.searcher.SimilarJobs(r.Context(), jobID, topK)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
