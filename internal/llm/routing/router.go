// Package routing maps logical tasks to concrete model choices. Decisions are
// pure and in-memory; they never block on the backend.
package routing

import (
	"strings"
	"time"

	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/llm/models"
	"go.uber.org/zap"
)

// TaskType is the logical kind of request. It determines which model serves
// the query and in what order fallbacks are tried.
type TaskType int

const (
	TaskProofAnalysis TaskType = iota
	TaskProblemGeneration
	TaskGeneral
)

func (t TaskType) String() string {
	switch t {
	case TaskProofAnalysis:
		return "proof_analysis"
	case TaskProblemGeneration:
		return "problem_generation"
	default:
		return "general"
	}
}

// requiresJSON reports whether the task's output must be machine-parseable.
func (t TaskType) requiresJSON() bool {
	return t == TaskProofAnalysis || t == TaskProblemGeneration
}

// reasoningMarker identifies model families that emit free-form
// chain-of-thought and cannot be trusted to produce strict JSON.
const reasoningMarker = "deepseek"

// RouteDecision is the outcome of routing one query. Immutable once produced
// and recomputed per call.
type RouteDecision struct {
	Selected  string
	Fallback  string
	Task      TaskType
	DecidedAt time.Time
}

// HasFallback reports whether a fallback model was found.
func (d RouteDecision) HasFallback() bool { return d.Fallback != "" }

// Router picks a primary and fallback model per task from the configured
// roles, constrained to models actually present in the registry.
type Router struct {
	roles    config.ModelRoles
	registry *models.Registry
	logger   *zap.Logger
}

func NewRouter(roles config.ModelRoles, registry *models.Registry, logger *zap.Logger) *Router {
	return &Router{roles: roles, registry: registry, logger: logger}
}

// Decide routes a task to a primary model and at most one fallback.
//
// When a task needs strict JSON output and the role's configured model is a
// reasoning-family model, the general model is promoted to primary and the
// configured model is demoted to a fallback candidate.
func (r *Router) Decide(task TaskType) RouteDecision {
	primary := r.primaryFor(task)

	demoted := ""
	if task.requiresJSON() && isReasoningModel(primary) && r.roles.General != primary {
		demoted = primary
		primary = r.roles.General
		r.logger.Debug("Substituted general model for reasoning model",
			zap.String("task", task.String()),
			zap.String("demoted", demoted),
			zap.String("primary", primary))
	}

	fallback := r.fallbackFor(task, primary, demoted)

	return RouteDecision{
		Selected:  primary,
		Fallback:  fallback,
		Task:      task,
		DecidedAt: time.Now(),
	}
}

func (r *Router) primaryFor(task TaskType) string {
	switch task {
	case TaskProofAnalysis:
		return r.roles.Proof
	case TaskProblemGeneration:
		return r.roles.Problem
	default:
		return r.roles.General
	}
}

// priorityFor lists fallback candidates for a task, best first.
func (r *Router) priorityFor(task TaskType) []string {
	switch task {
	case TaskProofAnalysis:
		return []string{r.roles.Proof, r.roles.General, r.roles.Problem}
	case TaskProblemGeneration:
		return []string{r.roles.Problem, r.roles.General, r.roles.Proof}
	default:
		return []string{r.roles.General, r.roles.Proof, r.roles.Problem}
	}
}

// fallbackFor picks the best candidate that is registered and distinct from
// the primary. A model demoted by the JSON substitution is considered first.
func (r *Router) fallbackFor(task TaskType, primary, demoted string) string {
	candidates := r.priorityFor(task)
	if demoted != "" {
		candidates = append([]string{demoted}, candidates...)
	}

	seen := map[string]bool{primary: true}
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if r.registry.Has(c) {
			return c
		}
	}

	// Nothing from the priority list survived; any other registered model
	// beats having no fallback at all.
	for _, name := range r.registry.Available() {
		if name != primary {
			return name
		}
	}
	return ""
}

func isReasoningModel(name string) bool {
	return strings.Contains(name, reasoningMarker)
}
