// Package query composes routing, caching, availability, retries, circuit
// breaking, and JSON recovery into the single entry point callers use to run
// a task against a model.
package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/praxislearn/praxis/internal/backoff"
	"github.com/praxislearn/praxis/internal/cache"
	"github.com/praxislearn/praxis/internal/circuitbreaker"
	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/llm/models"
	"github.com/praxislearn/praxis/internal/llm/routing"
	"github.com/praxislearn/praxis/internal/llm/sanitize"
	"github.com/praxislearn/praxis/internal/metrics"
	"github.com/praxislearn/praxis/internal/ollama"
	"github.com/praxislearn/praxis/internal/perr"
	"go.uber.org/zap"
)

// Orchestrator runs the retry/fallback/cache state machine. It is a
// process-lifetime singleton shared by all concurrent queries; all of its
// collaborators are safe for concurrent use.
type Orchestrator struct {
	registry *models.Registry
	router   *routing.Router
	cache    *cache.ResponseCache
	avail    *ollama.AvailabilityService
	breakers *circuitbreaker.Manager
	backoff  backoff.Policy
	cfg      config.QueryConfig
	logger   *zap.Logger
}

func NewOrchestrator(
	registry *models.Registry,
	router *routing.Router,
	responseCache *cache.ResponseCache,
	avail *ollama.AvailabilityService,
	breakers *circuitbreaker.Manager,
	policy backoff.Policy,
	cfg config.QueryConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		router:   router,
		cache:    responseCache,
		avail:    avail,
		breakers: breakers,
		backoff:  policy,
		cfg:      cfg,
		logger:   logger,
	}
}

// Do routes, executes, and parses one query into T. This is the typed entry
// point; it wraps the orchestrator's untyped state machine.
func Do[T any](ctx context.Context, o *Orchestrator, task routing.TaskType, prompt string) (T, error) {
	var out T
	if err := o.Query(ctx, task, prompt, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Query runs the full state machine for one JSON-producing query, writing the
// parsed result into out. out must be a pointer.
//
// Cache writes happen only on a fully parsed success, keyed under the model
// that actually served the response.
func (o *Orchestrator) Query(ctx context.Context, task routing.TaskType, prompt string, out any) error {
	decision := o.router.Decide(task)
	taskName := task.String()

	o.logger.Debug("Routing decision",
		zap.String("task", taskName),
		zap.String("primary", decision.Selected),
		zap.String("fallback", decision.Fallback))

	if o.cacheLookup(decision.Selected, prompt, out) {
		metrics.RecordCacheHit(taskName)
		metrics.RecordQuery(taskName, "cache_hit")
		return nil
	}
	metrics.RecordCacheMiss(taskName)

	primary, ok := o.registry.Get(decision.Selected)
	if !ok {
		return perr.Newf(perr.StageRouting, "model %q is not registered", decision.Selected).
			WithModel(decision.Selected)
	}

	// The breaker gates both the availability check and the attempt loop:
	// a model that has been failing persistently is skipped outright.
	if o.breakers.GetBreaker(decision.Selected).IsOpen() {
		o.logger.Warn("Circuit open for primary model, skipping",
			zap.String("model", decision.Selected))
		metrics.RecordBreakerOpen(decision.Selected)
		metrics.RecordFallback(taskName, "breaker_open")
		return o.runFallback(ctx, decision, prompt, out, nil)
	}

	if err := o.avail.Ensure(ctx, decision.Selected); err != nil {
		o.logger.Warn("Primary model unavailable",
			zap.String("model", decision.Selected), zap.Error(err))
		metrics.RecordFallback(taskName, "unavailable")
		return o.runFallback(ctx, decision, prompt, out, err)
	}

	parsed, raw, err := o.attemptLoop(ctx, primary, prompt, out)
	if err == nil {
		o.cacheStore(decision.Selected, prompt, parsed)
		metrics.RecordQuery(taskName, "success")
		return nil
	}

	o.logger.Warn("Primary model exhausted",
		zap.String("model", decision.Selected),
		zap.String("stage", perr.StageOf(err)),
		zap.Error(err))

	// Extraction and parse failures mean the model answered but mangled the
	// formatting; those are worth a repair pass. Truncation, oversize, and
	// timeouts mean content is missing and repair would only invent it.
	if repairableStage(perr.StageOf(err)) && raw != "" && decision.HasFallback() {
		if fallback, ok := o.registry.Get(decision.Fallback); ok {
			if rerr := o.repairJSON(ctx, fallback, raw, out); rerr == nil {
				o.cacheParsed(decision.Fallback, prompt, out)
				metrics.RecordQuery(taskName, "repaired")
				return nil
			} else {
				o.logger.Warn("JSON repair failed",
					zap.String("model", decision.Fallback),
					zap.String("stage", perr.StageOf(rerr)),
					zap.Error(rerr))
			}
		}
	}

	metrics.RecordFallback(taskName, perr.StageOf(err))
	return o.runFallback(ctx, decision, prompt, out, err)
}

// runFallback repeats the full attempt loop against the fallback model with
// the original prompt. primaryErr is the failure that triggered escalation;
// it is surfaced when no fallback exists.
func (o *Orchestrator) runFallback(ctx context.Context, decision routing.RouteDecision, prompt string, out any, primaryErr error) error {
	taskName := decision.Task.String()

	if !decision.HasFallback() {
		metrics.RecordQuery(taskName, "error")
		if primaryErr != nil {
			return primaryErr
		}
		return perr.Newf(perr.StageRouting, "no fallback model available for task %s", taskName).
			WithModel(decision.Selected)
	}

	fallback, ok := o.registry.Get(decision.Fallback)
	if !ok {
		metrics.RecordQuery(taskName, "error")
		return perr.Newf(perr.StageRouting, "fallback model %q is not registered", decision.Fallback).
			WithModel(decision.Fallback)
	}

	if err := o.avail.Ensure(ctx, decision.Fallback); err != nil {
		metrics.RecordQuery(taskName, "error")
		return err
	}

	parsed, _, err := o.attemptLoop(ctx, fallback, prompt, out)
	if err != nil {
		metrics.RecordQuery(taskName, "error")
		if pe, ok := err.(*perr.Error); ok {
			return pe.WithRetry(false)
		}
		return err
	}

	o.cacheStore(decision.Fallback, prompt, parsed)
	metrics.RecordQuery(taskName, "fallback")
	return nil
}

// attemptLoop calls one model up to the attempt budget, sanitizing and
// parsing each response. It returns the extracted JSON on success and the
// last raw response alongside any error so the caller can attempt repair.
//
// Truncation, oversize, and over-latency responses stop the loop immediately:
// retrying the same model would most likely reproduce the same defect, so
// they escalate to the fallback path instead.
func (o *Orchestrator) attemptLoop(ctx context.Context, handle models.Handle, prompt string, out any) (parsed string, lastRaw string, _ error) {
	breaker := o.breakers.GetBreaker(handle.Name())
	var lastErr error

	for attempt := 0; attempt < o.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := o.sleep(ctx, o.backoff.Delay(attempt-1)); err != nil {
				return "", lastRaw, err
			}
		}

		start := time.Now()
		raw, err := handle.GenerateText(ctx, prompt)
		elapsed := time.Since(start)

		if err != nil {
			metrics.RecordModelCall(handle.Name(), "error", elapsed)
			breaker.RecordFailure()
			lastErr = perr.Newf(perr.StageModelCall, "model call failed: %v", err).
				WithModel(handle.Name())
			o.logger.Debug("Model call failed",
				zap.String("model", handle.Name()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		metrics.RecordModelCall(handle.Name(), "success", elapsed)
		lastRaw = raw

		if elapsed > o.cfg.MaxLatency {
			breaker.RecordFailure()
			return "", raw, perr.Newf(perr.StageTimeoutTruncation,
				"model took %s, output likely truncated", elapsed.Round(time.Millisecond)).
				WithModel(handle.Name())
		}
		if len(raw) > o.cfg.MaxOutputBytes {
			breaker.RecordFailure()
			return "", raw, perr.Newf(perr.StageOutputTooLarge,
				"model returned %d bytes, limit is %d", len(raw), o.cfg.MaxOutputBytes).
				WithModel(handle.Name())
		}

		sanitized := sanitize.Sanitize(raw)
		if sanitize.IsTruncated(sanitized) {
			breaker.RecordFailure()
			return "", raw, perr.New(perr.StageTruncated, "model output is truncated").
				WithModel(handle.Name())
		}

		jsonStr, err := sanitize.ExtractJSON(sanitized)
		if err != nil {
			breaker.RecordFailure()
			lastErr = perr.Newf(perr.StageJSONExtract, "%v", err).WithModel(handle.Name())
			continue
		}

		if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
			breaker.RecordFailure()
			lastErr = perr.Newf(perr.StageJSONParse, "extracted JSON does not match expected shape: %v", err).
				WithModel(handle.Name())
			continue
		}

		breaker.RecordSuccess()
		return jsonStr, raw, nil
	}

	if lastErr == nil {
		lastErr = perr.New(perr.StageModelCall, "no attempts were made").WithModel(handle.Name())
	}
	return "", lastRaw, lastErr
}

// Text runs the cache/retry/fallback machinery for a free-form text query.
// No JSON extraction or repair applies; the raw response is the result.
func (o *Orchestrator) Text(ctx context.Context, task routing.TaskType, prompt string) (string, error) {
	decision := o.router.Decide(task)
	taskName := task.String()

	if entry, ok := o.cache.Get(decision.Selected, prompt); ok {
		metrics.RecordCacheHit(taskName)
		metrics.RecordQuery(taskName, "cache_hit")
		return entry.Data, nil
	}
	metrics.RecordCacheMiss(taskName)

	text, model, err := o.textOnce(ctx, decision.Selected, prompt)
	if err != nil && decision.HasFallback() {
		o.logger.Warn("Primary model failed for text query, trying fallback",
			zap.String("model", decision.Selected), zap.Error(err))
		metrics.RecordFallback(taskName, perr.StageOf(err))
		text, model, err = o.textOnce(ctx, decision.Fallback, prompt)
	}
	if err != nil {
		metrics.RecordQuery(taskName, "error")
		return "", err
	}

	o.cache.Put(model, prompt, text)
	metrics.UpdateCacheEntries(o.cache.Len())
	metrics.RecordQuery(taskName, "success")
	return text, nil
}

// textOnce runs the retry loop for a text response against a single model.
func (o *Orchestrator) textOnce(ctx context.Context, model, prompt string) (string, string, error) {
	handle, ok := o.registry.Get(model)
	if !ok {
		return "", model, perr.Newf(perr.StageRouting, "model %q is not registered", model).WithModel(model)
	}
	breaker := o.breakers.GetBreaker(model)
	if breaker.IsOpen() {
		return "", model, perr.New(perr.StageModelCall, "circuit open").WithModel(model)
	}
	if err := o.avail.Ensure(ctx, model); err != nil {
		return "", model, err
	}

	var lastErr error
	for attempt := 0; attempt < o.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := o.sleep(ctx, o.backoff.Delay(attempt-1)); err != nil {
				return "", model, err
			}
		}

		start := time.Now()
		text, err := handle.GenerateText(ctx, prompt)
		elapsed := time.Since(start)
		if err != nil {
			metrics.RecordModelCall(model, "error", elapsed)
			breaker.RecordFailure()
			lastErr = perr.Newf(perr.StageModelCall, "model call failed: %v", err).WithModel(model)
			continue
		}
		metrics.RecordModelCall(model, "success", elapsed)
		breaker.RecordSuccess()
		return text, model, nil
	}
	return "", model, lastErr
}

// repairableStage reports whether a failure stage is eligible for
// model-assisted JSON repair. Only formatting failures qualify; anything that
// implies missing content is not.
func repairableStage(stage string) bool {
	return stage == perr.StageJSONExtract || stage == perr.StageJSONParse
}

// cacheLookup deserializes a cached entry into out. Corrupt entries count as
// misses.
func (o *Orchestrator) cacheLookup(model, prompt string, out any) bool {
	entry, ok := o.cache.Get(model, prompt)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(entry.Data), out); err != nil {
		o.logger.Warn("Discarding unparseable cache entry",
			zap.String("model", model), zap.Error(err))
		return false
	}
	return true
}

// cacheStore caches already-extracted JSON. Best effort: a failure here never
// fails the caller's query.
func (o *Orchestrator) cacheStore(model, prompt, parsed string) {
	o.cache.Put(model, prompt, parsed)
	metrics.UpdateCacheEntries(o.cache.Len())
}

// cacheParsed re-serializes a parsed value for caching, used when the served
// JSON came from the repair path rather than straight extraction.
func (o *Orchestrator) cacheParsed(model, prompt string, out any) {
	data, err := json.Marshal(out)
	if err != nil {
		o.logger.Warn("Failed to serialize repaired result for cache", zap.Error(err))
		return
	}
	o.cacheStore(model, prompt, string(data))
}

// sleep waits for d or until the context is cancelled.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return perr.Newf(perr.StageModelCall, "cancelled while backing off: %v", ctx.Err())
	case <-timer.C:
		return nil
	}
}
