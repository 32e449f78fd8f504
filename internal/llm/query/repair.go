package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/praxislearn/praxis/internal/llm/models"
	"github.com/praxislearn/praxis/internal/llm/sanitize"
	"github.com/praxislearn/praxis/internal/metrics"
	"github.com/praxislearn/praxis/internal/perr"
	"go.uber.org/zap"
)

// truncatedSentinel is the literal the repair model must answer with when the
// fragment is genuinely incomplete and cannot be fixed by reformatting alone.
const truncatedSentinel = "__TRUNCATED__"

const repairInstructions = `You are a JSON formatting fixer. You will be given a malformed JSON fragment.

Rules:
- Fix ONLY formatting problems: missing or mismatched quotes, commas, brackets, braces.
- NEVER add fields that are not present in the fragment.
- NEVER guess or invent missing content.
- NEVER complete truncated arrays, objects, or strings with made-up values.
- If the fragment is genuinely truncated and cannot be fixed without inventing content, respond with exactly: "__TRUNCATED__"
- Respond with ONLY the corrected JSON, no explanation, no markdown fences.

Malformed JSON fragment:
%s`

// repairJSON asks the given model to reformat a malformed raw response and
// parses the result into out. Single shot: it never retries or recurses.
func (o *Orchestrator) repairJSON(ctx context.Context, handle models.Handle, raw string, out any) error {
	// Narrow the fragment to the best-effort object span first so the model
	// sees as little surrounding prose as possible.
	fragment := sanitize.FirstObject(raw)

	o.logger.Debug("Attempting JSON repair",
		zap.String("model", handle.Name()),
		zap.Int("fragment_bytes", len(fragment)))

	resp, err := handle.GenerateText(ctx, fmt.Sprintf(repairInstructions, fragment))
	if err != nil {
		metrics.RecordRepair("failed")
		return perr.Newf(perr.StageJSONRepair, "repair call failed: %v", err).
			WithModel(handle.Name())
	}

	sanitized := sanitize.Sanitize(resp)
	if strings.Contains(sanitized, truncatedSentinel) {
		metrics.RecordRepair("truncated")
		return perr.New(perr.StageTruncatedDetected, "repair model reports the fragment is truncated").
			WithModel(handle.Name())
	}

	jsonStr, err := sanitize.ExtractJSON(sanitized)
	if err != nil {
		metrics.RecordRepair("failed")
		return perr.Newf(perr.StageJSONRepairExtract, "%v", err).WithModel(handle.Name())
	}

	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		metrics.RecordRepair("failed")
		return perr.Newf(perr.StageJSONRepairParse, "repaired JSON does not match expected shape: %v", err).
			WithModel(handle.Name())
	}

	metrics.RecordRepair("success")
	return nil
}
