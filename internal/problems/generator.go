package problems

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/praxislearn/praxis/internal/llm/query"
	"github.com/praxislearn/praxis/internal/llm/routing"
	"github.com/praxislearn/praxis/internal/perr"
	"go.uber.org/zap"
)

const generatePromptTemplate = `Generate a new %s problem for the skill domain: %s.

Return ONLY valid JSON in the following schema:

{
  "id": "autogen_<unique_id>",
  "topic": "%s",
  "difficulty": %.2f,
  "statement": "the problem statement or question",
  "solution_sketch": "a brief outline of the solution approach as a single string (NOT an array or object)"
}

Requirements:
- The problem should be appropriate for %s difficulty level
- The problem should be clearly stated and solvable
- The solution_sketch MUST be a single string (not an array or object) that provides guidance without giving away the full answer
- Make the problem unique and interesting
- For coding problems, include code snippets if relevant
- For math/proof problems, be precise and mathematical
- Output only valid JSON, no markdown or extra text
- IMPORTANT: solution_sketch must be a string, not an array or object

Generate the problem now:`

// Generator produces new problems through the query orchestrator and
// persists them, rejecting duplicates of already-stored statements.
type Generator struct {
	store  *Store
	orch   *query.Orchestrator
	logger *zap.Logger
}

func NewGenerator(store *Store, orch *query.Orchestrator, logger *zap.Logger) *Generator {
	return &Generator{store: store, orch: orch, logger: logger}
}

// difficultyBand maps a numeric difficulty to the wording models respond to.
func difficultyBand(diff float64) string {
	switch {
	case diff < 0.3:
		return "easy"
	case diff < 0.6:
		return "medium"
	default:
		return "hard"
	}
}

// Generate creates one problem for a skill at the given difficulty, dedupes
// it against the store, and persists it on success.
func (g *Generator) Generate(ctx context.Context, skill string, diff float64) (*Problem, error) {
	band := difficultyBand(diff)
	prompt := fmt.Sprintf(generatePromptTemplate, band, skill, skill, diff, band)

	problem, err := query.Do[Problem](ctx, g.orch, routing.TaskProblemGeneration, prompt)
	if err != nil {
		return nil, err
	}

	// Models routinely ignore the id instructions; the topic and difficulty
	// are authoritative from the request, not the response.
	if problem.ID == "" || !strings.HasPrefix(problem.ID, "autogen_") {
		problem.ID = fmt.Sprintf("autogen_%d_%s", time.Now().UnixMilli(), skill)
	}
	problem.Topic = skill
	problem.Difficulty = diff

	if problem.Statement == "" {
		return nil, perr.New(perr.StageJSONParse, "generated problem has an empty statement")
	}
	if g.store.StatementHashes()[HashStatement(problem.Statement)] {
		return nil, perr.New(perr.StageState, "generated problem duplicates an existing problem")
	}

	if err := g.store.SaveAutogen(&problem); err != nil {
		// Persistence is best effort; the generated problem is still usable.
		g.logger.Warn("Failed to persist generated problem",
			zap.String("id", problem.ID), zap.Error(err))
	}

	g.logger.Info("Generated problem",
		zap.String("id", problem.ID),
		zap.String("skill", skill),
		zap.Float64("difficulty", diff))
	return &problem, nil
}
