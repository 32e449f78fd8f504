package ollama

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/praxislearn/praxis/internal/perr"
	"go.uber.org/zap"
)

// AvailabilityService answers whether a model is loaded in Ollama and can
// trigger a pull when it is not.
type AvailabilityService struct {
	client       *Client
	checkTimeout time.Duration
	pullTimeout  time.Duration
	logger       *zap.Logger
}

// NewAvailabilityService wraps client with availability semantics.
func NewAvailabilityService(client *Client, checkTimeout, pullTimeout time.Duration, logger *zap.Logger) *AvailabilityService {
	if checkTimeout <= 0 {
		checkTimeout = 3 * time.Second
	}
	if pullTimeout <= 0 {
		pullTimeout = 30 * time.Second
	}
	return &AvailabilityService{
		client:       client,
		checkTimeout: checkTimeout,
		pullTimeout:  pullTimeout,
		logger:       logger,
	}
}

// Exists reports whether the model is installed, matching the exact name or
// a "name:" tag prefix. Any backend error counts as unavailable.
func (s *AvailabilityService) Exists(ctx context.Context, model string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	tags, err := s.client.ListTags(ctx)
	if err != nil {
		s.logger.Warn("Availability check failed",
			zap.String("model", model), zap.Error(err))
		return false
	}

	for _, m := range tags {
		if m.Name == model || strings.HasPrefix(m.Name, model+":") {
			return true
		}
	}
	return false
}

// Ensure makes sure the model is loaded, initiating a pull on a miss.
func (s *AvailabilityService) Ensure(ctx context.Context, model string) error {
	if s.Exists(ctx, model) {
		return nil
	}

	s.logger.Info("Model not installed, attempting pull", zap.String("model", model))

	pullCtx, cancel := context.WithTimeout(ctx, s.pullTimeout)
	defer cancel()

	if err := s.client.Pull(pullCtx, model); err != nil {
		return perr.Newf(perr.StageAvailability, "failed to load model %q: %v", model, err).
			WithModel(model)
	}

	// A pull is only initiation; large models take minutes to download. The
	// model counts as unavailable until it actually shows up in the tag list.
	if s.Exists(ctx, model) {
		return nil
	}
	return perr.Newf(perr.StageAvailability, "model %q is not yet available (pull initiated)", model).
		WithModel(model)
}

// Warmup pings availability for all given models in parallel to cut
// cold-start latency on the first real query.
func (s *AvailabilityService) Warmup(ctx context.Context, models []string) {
	start := time.Now()
	var wg sync.WaitGroup
	for _, model := range models {
		wg.Add(1)
		go func(model string) {
			defer wg.Done()
			if s.Exists(ctx, model) {
				s.logger.Info("Warmed up model", zap.String("model", model))
			} else {
				s.logger.Warn("Model not available during warm-up", zap.String("model", model))
			}
		}(model)
	}
	wg.Wait()
	s.logger.Info("Model warm-up finished", zap.Duration("elapsed", time.Since(start)))
}
