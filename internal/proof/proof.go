// Package proof implements the two-step Socratic proof-review flow: a first
// pass that structures and critiques a solution attempt, and a second pass
// that evaluates the learner's answers to the clarifying questions.
package proof

import (
	"context"
	"fmt"

	"github.com/praxislearn/praxis/internal/llm/query"
	"github.com/praxislearn/praxis/internal/llm/routing"
	"go.uber.org/zap"
)

// Step is one meaningful statement extracted from the learner's attempt.
type Step struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Role string `json:"role"`
}

// Issue is one defect found in a step. Type feeds the skill bookkeeping.
type Issue struct {
	StepID      string `json:"step_id"`
	Type        string `json:"type"`
	Explanation string `json:"explanation"`
}

// Step1Response is the structured critique of the attempt.
type Step1Response struct {
	Steps     []Step   `json:"steps"`
	Issues    []Issue  `json:"issues"`
	Questions []string `json:"questions"`
	Summary   string   `json:"summary"`
}

// Perfect reports whether the attempt had no issues and needed no follow-up.
func (r *Step1Response) Perfect() bool {
	return len(r.Issues) == 0 && len(r.Questions) == 0
}

// QuestionEvaluation grades one answer to a clarifying question.
type QuestionEvaluation struct {
	Question   string `json:"question"`
	UserAnswer string `json:"user_answer"`
	Assessment string `json:"assessment"`
	Comment    string `json:"comment"`
}

// Step2Response is the evaluation of the learner's answers.
type Step2Response struct {
	Evaluation    []QuestionEvaluation `json:"evaluation"`
	NextTasks     []string             `json:"next_tasks"`
	NeedsRevision bool                 `json:"needs_revision"`
}

// Service runs both steps through the query orchestrator under the
// proof-analysis task.
type Service struct {
	orch   *query.Orchestrator
	logger *zap.Logger
}

func NewService(orch *query.Orchestrator, logger *zap.Logger) *Service {
	return &Service{orch: orch, logger: logger}
}

// Analyze runs step 1 on a solution attempt.
func (s *Service) Analyze(ctx context.Context, attempt string) (*Step1Response, error) {
	prompt := fmt.Sprintf("%s\n\n%s", systemPrompt, buildStep1Prompt(attempt))
	resp, err := query.Do[Step1Response](ctx, s.orch, routing.TaskProofAnalysis, prompt)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Proof analysis completed",
		zap.Int("steps", len(resp.Steps)),
		zap.Int("issues", len(resp.Issues)),
		zap.Int("questions", len(resp.Questions)))
	return &resp, nil
}

// Evaluate runs step 2 over the learner's answers to the step-1 questions.
// issuesJSON is the serialized issue list from step 1.
func (s *Service) Evaluate(ctx context.Context, attempt, issuesJSON, questions, answers string) (*Step2Response, error) {
	prompt := fmt.Sprintf("%s\n\n%s", systemPrompt, buildStep2Prompt(attempt, issuesJSON, questions, answers))
	resp, err := query.Do[Step2Response](ctx, s.orch, routing.TaskProofAnalysis, prompt)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Answer evaluation completed",
		zap.Int("evaluations", len(resp.Evaluation)),
		zap.Bool("needs_revision", resp.NeedsRevision))
	return &resp, nil
}
