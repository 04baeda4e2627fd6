package dashboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gridwise/carbonsched/internal/carbon"
	"github.com/gridwise/carbonsched/internal/strategy"
)

const maxRequestBody = 1 << 20

// Server exposes the dashboard HTTP API: read access to experiment results
// and on-demand cost-model evaluations and placements.
type Server struct {
	store    *ResultStore
	model    *carbon.Model
	selector *strategy.Selector
	fleet    strategy.Fleet
	logger   zerolog.Logger
	metrics  *apiMetrics
}

// NewServer wires the API around a result store, cost model, and selector.
// The fleet is the candidate set used by the schedule endpoint.
func NewServer(store *ResultStore, model *carbon.Model, selector *strategy.Selector, fleet strategy.Fleet, logger zerolog.Logger) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: result store is required", carbon.ErrInvalidParameter)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: model is required", carbon.ErrInvalidParameter)
	}
	if selector == nil {
		return nil, fmt.Errorf("%w: selector is required", carbon.ErrInvalidParameter)
	}
	if err := fleet.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		store:    store,
		model:    model,
		selector: selector,
		fleet:    fleet,
		logger:   logger,
		metrics:  newAPIMetrics(),
	}, nil
}

// Router builds the HTTP routing table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/results", s.handleResults).Methods(http.MethodGet)
	v1.HandleFunc("/results/summary", s.handleSummary).Methods(http.MethodGet)
	v1.HandleFunc("/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	v1.HandleFunc("/schedule", s.handleSchedule).Methods(http.MethodPost)
	v1.HandleFunc("/schedule/rank", s.handleRank).Methods(http.MethodPost)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"results":   s.store.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	strategyName := r.URL.Query().Get("strategy")
	if strategyName != "" {
		if _, err := strategy.Parse(strategyName); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	region := r.URL.Query().Get("region")

	records := s.store.Filter(strategyName, region)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"results": records,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"strategies": s.store.Summarize(),
	})
}

// EvaluateRequest is the body of POST /api/v1/evaluate: one direct cost-model
// evaluation with no placement policy involved.
type EvaluateRequest struct {
	ServerAgeYears         float64 `json:"server_age_years"`
	CarbonIntensityGPerKWh float64 `json:"carbon_intensity_g_per_kwh"`
	PUE                    float64 `json:"pue"`
	DurationSeconds        float64 `json:"duration_s"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.PUE == 0 {
		req.PUE = carbon.DefaultPUE
	}

	result, err := s.model.Evaluate(
		s.model.Config().Profile(req.ServerAgeYears),
		carbon.GridContext{CarbonIntensityGPerKWh: req.CarbonIntensityGPerKWh, PUE: req.PUE},
		carbon.Task{DurationSeconds: req.DurationSeconds},
	)
	if err != nil {
		s.respondModelError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// ScheduleRequest is the body of POST /api/v1/schedule: a placement request
// resolved by the configured strategy against the server's fleet.
type ScheduleRequest struct {
	Strategy        string  `json:"strategy"`
	DurationSeconds float64 `json:"duration_s"`
	SLAMs           float64 `json:"sla_ms"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	strat, err := strategy.Parse(req.Strategy)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := s.selector.Select(r.Context(), carbon.Task{
		DurationSeconds: req.DurationSeconds,
		SLAMs:           req.SLAMs,
	}, strat, s.fleet)
	if err != nil {
		s.respondModelError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, decision)
}

// handleRank returns every scored candidate for a placement request so the
// UI can show what the chosen placement was weighed against.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	strat, err := strategy.Parse(req.Strategy)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := s.selector.Rank(r.Context(), carbon.Task{
		DurationSeconds: req.DurationSeconds,
		SLAMs:           req.SLAMs,
	}, strat, s.fleet)
	if err != nil {
		s.respondModelError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"count":      len(candidates),
		"candidates": candidates,
	})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// respondModelError maps domain errors onto HTTP codes: bad parameters and
// infeasible requests are the client's fault, postcondition violations and
// anything else are ours.
func (s *Server) respondModelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, carbon.ErrInvalidParameter):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, strategy.ErrNoFeasibleRegion):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error().Err(err).Msg("Evaluation failed")
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respondJSON(w, code, errorResponse{Status: "error", Message: message})
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}
