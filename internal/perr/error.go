package perr

import (
	"errors"
	"fmt"
)

// Stages identify where in the query pipeline an error was produced.
// Handlers and tests branch on these, so they are part of the contract.
const (
	StageModelCall         = "model_call"
	StageTimeoutTruncation = "timeout_truncation"
	StageOutputTooLarge    = "output_too_large"
	StageTruncated         = "truncated"
	StageJSONExtract       = "json_extract"
	StageJSONParse         = "json_parse"
	StageJSONRepair        = "json_repair"
	StageJSONRepairExtract = "json_repair_extract"
	StageJSONRepairParse   = "json_repair_parse"
	StageTruncatedDetected = "truncated_detected"
	StageRouting           = "routing"
	StageAvailability      = "model_availability"
	StageCache             = "cache"
	StageState             = "state"
	StageIO                = "io"
	StageSerialize         = "json_serialize"
)

// Error is the unified error type for the query subsystem. Every failure
// carries the pipeline stage it came from, optionally the model involved,
// and whether a retry ultimately succeeded.
type Error struct {
	Stage          string `json:"stage"`
	Message        string `json:"message"`
	Model          string `json:"model,omitempty"`
	Context        string `json:"context,omitempty"`
	RetrySucceeded bool   `json:"retry_succeeded"`
}

// New creates an error for the given stage.
func New(stage, message string) *Error {
	return &Error{Stage: stage, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(stage, format string, args ...any) *Error {
	return &Error{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// WithModel attaches the model id the error relates to.
func (e *Error) WithModel(model string) *Error {
	e.Model = model
	return e
}

// WithContext attaches free-text context.
func (e *Error) WithContext(ctx string) *Error {
	e.Context = ctx
	return e
}

// WithRetry records whether a retry ultimately succeeded.
func (e *Error) WithRetry(succeeded bool) *Error {
	e.RetrySucceeded = succeeded
	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Stage, e.Message)
	if e.Model != "" {
		s += fmt.Sprintf(" (model: %s)", e.Model)
	}
	if e.Context != "" {
		s += fmt.Sprintf(" (context: %s)", e.Context)
	}
	return s
}

// StageOf returns the stage of err if it is (or wraps) a *Error, else "".
func StageOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
