package models

import (
	"sort"
	"sync"

	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/ollama"
	"go.uber.org/zap"
)

// Fixed aliases registered alongside the configured roles so common model
// names resolve even when the config points roles elsewhere.
var fixedAliases = []string{
	"deepseek-r1:7b",
	"qwen2-math:7b",
	"qwen2.5:7b-instruct",
}

// Registry maps model identifiers to capability handles. It is built once at
// startup and read-only afterwards; lookups are O(1) and never do I/O.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle
	logger  *zap.Logger
}

// NewRegistry builds the registry from the three configured roles plus the
// fixed family aliases.
func NewRegistry(roles config.ModelRoles, client *ollama.Client, avail *ollama.AvailabilityService, logger *zap.Logger) *Registry {
	r := &Registry{
		handles: make(map[string]Handle),
		logger:  logger,
	}

	names := append([]string{roles.Proof, roles.Problem, roles.General}, fixedAliases...)
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := r.handles[name]; ok {
			continue
		}
		r.handles[name] = newHandle(name, client, avail)
		logger.Debug("Registered model", zap.String("model", name))
	}

	logger.Info("Model registry built", zap.Int("models", len(r.handles)))
	return r
}

// Get returns the handle for a model id.
func (r *Registry) Get(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}

// Has reports whether a model id is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Available returns all registered model ids, sorted for stable output.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
