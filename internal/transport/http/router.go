// Package httptransport exposes asynchronous person searches over HTTP.
package httptransport

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PersonIntel/internal/domain"
)

const (
	apiKeyHeader  = "X-API-Key"
	maxNameLength = 200
	maxBodyBytes  = 1 << 16
)

// Deps groups what the API needs.
type Deps struct {
	Jobs     *JobStore
	APIKey   string
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Handler serves the search API.
type Handler struct {
	jobs   *JobStore
	apiKey string
	logger *slog.Logger
	now    func() time.Time
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	h := &Handler{
		jobs:   deps.Jobs,
		apiKey: deps.APIKey,
		logger: deps.Logger.With("component", "http"),
		now:    deps.Clock,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	r.Group(h.Register)
	return r
}

// Register mounts the authenticated search endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Use(h.requireAPIKey)
	r.Post("/search", h.handleSubmit)
	r.Route("/search/{id}", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/result", h.handleResult)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey != "" {
			got := r.Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type searchRequest struct {
	Name string `json:"name"`
}

type searchAccepted struct {
	RequestID string    `json:"request_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type statusResponse struct {
	RequestID              string       `json:"request_id"`
	Name                   string       `json:"name"`
	Status                 string       `json:"status"`
	Stage                  domain.Stage `json:"stage,omitempty"`
	Completion             float64      `json:"completion"`
	EstimatedTimeRemaining *int         `json:"estimated_time_remaining,omitempty"`
	Error                  string       `json:"error,omitempty"`
}

type resultResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	domain.Intelligence
}

type summaryResponse struct {
	RequestID       string           `json:"request_id"`
	Name            string           `json:"name"`
	Status          string           `json:"status"`
	RiskLevel       domain.RiskLevel `json:"risk_level"`
	ConfidenceScore float64          `json:"confidence_score"`
	Summary         string           `json:"summary"`
	SourcesChecked  []string         `json:"sources_checked"`
	Timestamp       time.Time        `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("name must be at most %d characters", maxNameLength))
		return
	}

	// Runs outlive the request that started them.
	job := h.jobs.Submit(context.WithoutCancel(r.Context()), name)
	h.logger.Info("search accepted",
		"request_id", job.ID,
		"http_request_id", middleware.GetReqID(r.Context()))

	writeJSON(w, http.StatusAccepted, searchAccepted{
		RequestID: job.ID,
		Name:      job.Name,
		Status:    job.Status,
		Timestamp: job.Submitted,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		RequestID:              job.ID,
		Name:                   job.Name,
		Status:                 job.Status,
		Stage:                  job.Stage,
		Completion:             job.Completion,
		EstimatedTimeRemaining: job.EstimatedRemaining(h.now()),
		Error:                  job.Failure,
	})
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	job, ok := h.completed(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{RequestID: job.ID, Status: job.Status, Intelligence: *job.Result})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	job, ok := h.completed(w, r)
	if !ok {
		return
	}
	intel := job.Result
	writeJSON(w, http.StatusOK, summaryResponse{
		RequestID:       job.ID,
		Name:            intel.Name,
		Status:          job.Status,
		RiskLevel:       intel.RiskLevel,
		ConfidenceScore: intel.ConfidenceScore,
		Summary:         intel.Summary,
		SourcesChecked:  intel.SourcesChecked,
		Timestamp:       h.now(),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (Job, bool) {
	job, err := h.jobs.Get(chi.URLParam(r, "id"))
	if errors.Is(err, ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "Search task not found")
		return Job{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return Job{}, false
	}
	return job, true
}

func (h *Handler) completed(w http.ResponseWriter, r *http.Request) (Job, bool) {
	job, ok := h.lookup(w, r)
	if !ok {
		return Job{}, false
	}
	if job.Status != StatusCompleted || job.Result == nil {
		writeError(w, http.StatusBadRequest, "Search task is not completed. Current status: "+job.Status)
		return Job{}, false
	}
	return job, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
