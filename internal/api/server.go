package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/rs/cors"

	"github.com/shreeharini-261/ARIVAI-Research/internal/codec"
	"github.com/shreeharini-261/ARIVAI-Research/internal/eval"
	"github.com/shreeharini-261/ARIVAI-Research/internal/logging"
	"github.com/shreeharini-261/ARIVAI-Research/internal/orchestrator"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

// #region lab-interface

// Lab is the experiment surface the API serves.
type Lab interface {
	Run(ctx context.Context, req orchestrator.RunRequest) (orchestrator.RunResult, error)
	Scenario(id string) (orchestrator.ScenarioDetail, error)
	Scenarios(limit int) ([]state.ScenarioRecord, error)
	Evaluate(r eval.Rating) (eval.Evaluation, error)
	Evaluations(limit int) ([]eval.Evaluation, error)
	Summary(phase state.Phase) ([]orchestrator.StrategySummary, orchestrator.StrategyID, error)
	Runs(scenarioID string) ([]logging.RunEntry, error)
}

// #endregion lab-interface

// #region server

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 20
	maxListLimit     = 500
)

// Server is the dashboard HTTP API.
type Server struct {
	lab      Lab
	sampling codec.Sampling
	handler  http.Handler
}

// NewServer builds the API. sampling fills fields a generate request
// leaves unset; origins lists allowed CORS origins.
func NewServer(lab Lab, sampling codec.Sampling, origins []string) *Server {
	s := &Server{lab: lab, sampling: sampling}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/vector", s.handleVector)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/scenarios", s.handleListScenarios)
	mux.HandleFunc("GET /api/scenarios/{id}", s.handleGetScenario)
	mux.HandleFunc("GET /api/scenarios/{id}/runs", s.handleScenarioRuns)
	mux.HandleFunc("POST /api/evaluate", s.handleCreateEvaluation)
	mux.HandleFunc("GET /api/evaluate", s.handleListEvaluations)
	mux.HandleFunc("GET /api/strategies/summary", s.handleSummary)

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// #endregion server

// #region handlers

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("OK"))
}

func (s *Server) handleVector(w http.ResponseWriter, r *http.Request) {
	var in state.ScenarioInput
	if !decode(w, r, &in) {
		return
	}
	if err := state.Validate(in); err != nil {
		writeError(w, err)
		return
	}
	comp, err := state.Explain(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newVectorResponse(comp))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if !decode(w, r, &body) {
		return
	}
	if body.ScenarioInput == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("scenarioInput is required"))
		return
	}

	res, err := s.lab.Run(r.Context(), orchestrator.RunRequest{
		Input:       *body.ScenarioInput,
		Strategy:    orchestrator.StrategyID(body.Strategy),
		GenerateAll: body.GenerateAllStrategies,
		Sampling:    body.Config.sampling(s.sampling),
		Trigger:     "api",
	})
	if err != nil {
		log.Printf("[API] generate error: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGenerateResponse(res))
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	recs, err := s.lab.Scenarios(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]scenarioJSON, len(recs))
	for i, rec := range recs {
		out[i] = newScenarioJSON(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": out})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	detail, err := s.lab.Scenario(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := scenarioDetailJSON{
		Scenario:    newScenarioJSON(detail.Scenario),
		Generations: make([]resultJSON, len(detail.Generations)),
	}
	for i, g := range detail.Generations {
		out.Generations[i] = newResultJSON(g)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScenarioRuns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.lab.Scenario(id); err != nil {
		writeError(w, err)
		return
	}
	entries, err := s.lab.Runs(id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]runJSON, len(entries))
	for i, e := range entries {
		out[i] = newRunJSON(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (s *Server) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	var body evaluateRequest
	if !decode(w, r, &body) {
		return
	}
	ev, err := s.lab.Evaluate(body.rating())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "evaluation": newEvaluationJSON(ev)})
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if r.URL.Query().Get("limit") != "" {
		var err error
		if limit, err = parseLimit(r); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
	}
	evs, err := s.lab.Evaluations(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]evaluationJSON, len(evs))
	for i, ev := range evs {
		out[i] = newEvaluationJSON(ev)
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": out})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var phase state.Phase
	if p := r.URL.Query().Get("phase"); p != "" {
		var err error
		if phase, err = state.ParsePhase(p); err != nil {
			writeError(w, err)
			return
		}
	}
	summary, best, err := s.lab.Summary(phase)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryJSON{Phase: phase, Best: best, Strategies: summary})
}

// #endregion handlers

// #region helpers

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("invalid json: %v", err)))
		return false
	}
	return true
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return min(n, maxListLimit), nil
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, state.ErrInvalidEnumeration),
		errors.Is(err, state.ErrOutOfRange),
		errors.Is(err, orchestrator.ErrInvalidStrategy),
		errors.Is(err, eval.ErrScoreOutOfRange),
		errors.Is(err, eval.ErrMissingGeneration):
		return http.StatusBadRequest
	case errors.Is(err, state.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, codec.ErrEmptyResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody(err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encode response: %v", err)
	}
}

// #endregion helpers
