package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/praxislearn/praxis/internal/llm/models"
	"github.com/praxislearn/praxis/internal/llm/query"
	"github.com/praxislearn/praxis/internal/llm/routing"
	"github.com/praxislearn/praxis/internal/metrics"
	"github.com/praxislearn/praxis/internal/ollama"
	"github.com/praxislearn/praxis/internal/problems"
	"github.com/praxislearn/praxis/internal/proof"
	"github.com/praxislearn/praxis/internal/sessions"
	"github.com/praxislearn/praxis/internal/skills"
	"go.uber.org/zap"
)

// Handler carries the wired application services for the HTTP surface.
type Handler struct {
	Orchestrator *query.Orchestrator
	Proof        *proof.Service
	Generator    *problems.Generator
	Prefetcher   *problems.Prefetcher
	Skills       *skills.Store
	Sessions     *sessions.Store
	Registry     *models.Registry
	Availability *ollama.AvailabilityService
	Logger       *zap.Logger
}

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health reports whether the inference backend is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Services: map[string]string{}}

	reachable := false
	for _, name := range h.Registry.Available() {
		if handle, ok := h.Registry.Get(name); ok && handle.HealthCheck(r.Context()) {
			reachable = true
			break
		}
	}
	if reachable {
		resp.Services["ollama"] = "healthy"
	} else {
		resp.Services["ollama"] = "unreachable"
		resp.Status = "degraded"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type analyzeRequest struct {
	Attempt string `json:"attempt"`
	Skill   string `json:"skill,omitempty"`
}

// AnalyzeProof runs step 1 of the proof review and applies the resulting
// issue penalties (or perfect-proof reward) to the skill vector.
func (h *Handler) AnalyzeProof(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Attempt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "attempt is required"})
		return
	}

	resp, err := h.Proof.Analyze(r.Context(), req.Attempt)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	vector := h.Skills.Load()
	for _, issue := range resp.Issues {
		vector.ApplyIssue(issue.Type)
	}
	if resp.Perfect() && req.Skill != "" {
		vector.RewardPerfect(req.Skill)
	}
	if err := h.Skills.Save(vector); err != nil {
		h.Logger.Warn("Failed to save skill vector after analysis", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, resp)
}

type evaluateRequest struct {
	Attempt    string `json:"attempt"`
	IssuesJSON string `json:"issues_json"`
	Questions  string `json:"questions"`
	Answers    string `json:"answers"`
}

// EvaluateAnswers runs step 2 and applies assessment rewards to the skills.
func (h *Handler) EvaluateAnswers(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Attempt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "attempt is required"})
		return
	}

	resp, err := h.Proof.Evaluate(r.Context(), req.Attempt, req.IssuesJSON, req.Questions, req.Answers)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	vector := h.Skills.Load()
	for _, eval := range resp.Evaluation {
		vector.ApplyAssessment(eval.Assessment)
	}
	if err := h.Skills.Save(vector); err != nil {
		h.Logger.Warn("Failed to save skill vector after evaluation", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, resp)
}

type generateRequest struct {
	Skill      string  `json:"skill"`
	Difficulty float64 `json:"difficulty"`
}

// GenerateProblem creates one new problem on demand.
func (h *Handler) GenerateProblem(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Skill == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "skill is required"})
		return
	}
	if req.Difficulty <= 0 {
		req.Difficulty = 0.5
	}

	problem, err := h.Generator.Generate(r.Context(), req.Skill, req.Difficulty)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, problem)
}

// NextProblem serves the next queued or selected problem.
func (h *Handler) NextProblem(w http.ResponseWriter, r *http.Request) {
	problem := h.Prefetcher.Next()
	if problem == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no problems available"})
		return
	}
	writeJSON(w, http.StatusOK, problem)
}

type queryRequest struct {
	Prompt string `json:"prompt"`
}

type queryResponse struct {
	Response string `json:"response"`
}

// GeneralQuery answers a free-form question with the general model.
func (h *Handler) GeneralQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	text, err := h.Orchestrator.Text(r.Context(), routing.TaskGeneral, req.Prompt)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Response: text})
}

type modelStatus struct {
	Name      string `json:"name"`
	Installed bool   `json:"installed"`
}

// ListModels reports every registered model and whether it is installed.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	names := h.Registry.Available()
	statuses := make([]modelStatus, 0, len(names))
	for _, name := range names {
		installed := h.Availability.Exists(r.Context(), name)
		metrics.UpdateModelAvailability(name, installed)
		statuses = append(statuses, modelStatus{Name: name, Installed: installed})
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": statuses})
}

// GetSkills returns the current skill vector.
func (h *Handler) GetSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Skills.Load())
}

// ListSessions returns all recorded sessions, oldest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	records, err := h.Sessions.LoadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []sessions.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": records})
}

// SaveSession records one completed session.
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var record sessions.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session record"})
		return
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}
	if err := h.Sessions.Save(&record); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": record.SessionID})
}
