package routing

import (
	"testing"

	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/llm/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testRoles() config.ModelRoles {
	return config.ModelRoles{
		Proof:   "deepseek-r1:7b",
		Problem: "qwen2-math:7b",
		General: "qwen2.5:7b-instruct",
	}
}

func testRouter(t *testing.T, roles config.ModelRoles) *Router {
	t.Helper()
	logger := zap.NewNop()
	registry := models.NewRegistry(roles, nil, nil, logger)
	return NewRouter(roles, registry, logger)
}

func TestDecide_ReasoningModelSubstitution(t *testing.T) {
	r := testRouter(t, testRoles())

	t.Run("proof analysis swaps in general model", func(t *testing.T) {
		d := r.Decide(TaskProofAnalysis)
		assert.Equal(t, "qwen2.5:7b-instruct", d.Selected)
		assert.Equal(t, "deepseek-r1:7b", d.Fallback, "demoted model stays as fallback")
	})

	t.Run("problem generation keeps math primary", func(t *testing.T) {
		d := r.Decide(TaskProblemGeneration)
		assert.Equal(t, "qwen2-math:7b", d.Selected)
		assert.Equal(t, "qwen2.5:7b-instruct", d.Fallback)
	})

	t.Run("reasoning model configured for problems is demoted", func(t *testing.T) {
		roles := testRoles()
		roles.Problem = "deepseek-r1:7b"
		d := testRouter(t, roles).Decide(TaskProblemGeneration)
		assert.Equal(t, "qwen2.5:7b-instruct", d.Selected)
		assert.Equal(t, "deepseek-r1:7b", d.Fallback)
	})
}

func TestDecide_General(t *testing.T) {
	d := testRouter(t, testRoles()).Decide(TaskGeneral)
	assert.Equal(t, "qwen2.5:7b-instruct", d.Selected)
	assert.True(t, d.HasFallback())
	assert.NotEqual(t, d.Selected, d.Fallback)
}

func TestDecide_FallbackNeverEqualsPrimary(t *testing.T) {
	r := testRouter(t, testRoles())
	for _, task := range []TaskType{TaskProofAnalysis, TaskProblemGeneration, TaskGeneral} {
		d := r.Decide(task)
		assert.NotEqual(t, d.Selected, d.Fallback, "task %s", task)
		assert.False(t, d.DecidedAt.IsZero())
	}
}

func TestDecide_SingleModelHasNoFallback(t *testing.T) {
	roles := config.ModelRoles{
		Proof:   "qwen2.5:7b-instruct",
		Problem: "qwen2.5:7b-instruct",
		General: "qwen2.5:7b-instruct",
	}
	logger := zap.NewNop()
	registry := models.NewRegistry(roles, nil, nil, logger)
	r := NewRouter(roles, registry, logger)

	d := r.Decide(TaskGeneral)
	assert.Equal(t, "qwen2.5:7b-instruct", d.Selected)
	// Fixed aliases keep other models registered, so a fallback still exists.
	assert.True(t, d.HasFallback())
	assert.NotEqual(t, d.Selected, d.Fallback)
}

func TestTaskTypeString(t *testing.T) {
	assert.Equal(t, "proof_analysis", TaskProofAnalysis.String())
	assert.Equal(t, "problem_generation", TaskProblemGeneration.String())
	assert.Equal(t, "general", TaskGeneral.String())
}
