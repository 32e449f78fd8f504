// Package models maps model identifiers to a uniform capability surface.
// Callers never branch on model family; they only use the Handle interface.
package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/praxislearn/praxis/internal/llm/sanitize"
	"github.com/praxislearn/praxis/internal/ollama"
)

// Handle is the capability surface every registered model exposes,
// regardless of which family backs it. Handles are owned by the Registry;
// callers borrow them and never hold backend connections of their own.
type Handle interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, out any) error
	HealthCheck(ctx context.Context) bool
}

// baseHandle implements the shared generate/parse pipeline. Families differ
// only in the debug tag embedded in their errors.
type baseHandle struct {
	name   string
	family string
	client *ollama.Client
	avail  *ollama.AvailabilityService
}

func (h *baseHandle) Name() string { return h.name }

func (h *baseHandle) GenerateText(ctx context.Context, prompt string) (string, error) {
	return h.client.Generate(ctx, h.name, prompt)
}

func (h *baseHandle) GenerateJSON(ctx context.Context, prompt string, out any) error {
	raw, err := h.client.Generate(ctx, h.name, prompt)
	if err != nil {
		return err
	}

	sanitized := sanitize.Sanitize(raw)
	jsonStr, err := sanitize.ExtractJSON(sanitized)
	if err != nil {
		return fmt.Errorf("[%s] model %q: failed to extract JSON: %w", h.family, h.name, err)
	}

	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("[%s] model %q returned invalid JSON (%v); extracted: %s",
			h.family, h.name, err, headOf(jsonStr, 200))
	}
	return nil
}

func (h *baseHandle) HealthCheck(ctx context.Context) bool {
	return h.avail.Exists(ctx, h.name)
}

func headOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Family tags. The reasoning family produces free-form chain-of-thought and
// is unreliable for strict JSON output; the router treats it specially.
const (
	familyReasoning = "reasoning"
	familyMath      = "math"
	familyInstruct  = "instruct"
)

// newHandle picks the family implementation from the model's naming
// convention.
func newHandle(name string, client *ollama.Client, avail *ollama.AvailabilityService) Handle {
	return &baseHandle{
		name:   name,
		family: familyOf(name),
		client: client,
		avail:  avail,
	}
}

func familyOf(name string) string {
	switch {
	case strings.Contains(name, "deepseek"):
		return familyReasoning
	case strings.Contains(name, "math"):
		return familyMath
	default:
		return familyInstruct
	}
}
