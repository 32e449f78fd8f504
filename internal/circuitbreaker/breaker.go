package circuitbreaker

import (
	"sync"
	"time"
)

// SimpleBreaker is a basic circuit breaker that tracks consecutive failures
// and opens after a threshold. There is no separate half-open state: once the
// cooldown has elapsed since the last failure, the next IsOpen check resets
// the breaker to closed with a zero failure count.
type SimpleBreaker struct {
	mu              sync.Mutex
	failures        int
	lastFailureTime time.Time
	isOpen          bool

	threshold int
	cooldown  time.Duration
}

// New creates a new circuit breaker.
func New(threshold int, cooldown time.Duration) *SimpleBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	return &SimpleBreaker{
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// IsOpen reports whether the circuit is open (requests should be skipped).
func (b *SimpleBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isOpen {
		return false
	}

	if time.Since(b.lastFailureTime) >= b.cooldown {
		b.isOpen = false
		b.failures = 0
		return false
	}

	return true
}

// RecordSuccess resets the failure counter and closes the circuit.
func (b *SimpleBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.isOpen = false
	b.lastFailureTime = time.Time{}
}

// RecordFailure increments the failure counter and opens the circuit once the
// threshold is reached.
func (b *SimpleBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureTime = time.Now()

	if b.failures >= b.threshold {
		b.isOpen = true
	}
}

// Reset manually resets the circuit breaker.
func (b *SimpleBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.isOpen = false
}

// GetState returns the current state for monitoring.
func (b *SimpleBreaker) GetState() (isOpen bool, failures int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.isOpen, b.failures
}

// Manager holds one breaker per model id, created lazily with shared defaults.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*SimpleBreaker

	defaultThreshold int
	defaultCooldown  time.Duration
}

// NewManager creates a new circuit breaker manager.
func NewManager(threshold int, cooldown time.Duration) *Manager {
	return &Manager{
		breakers:         make(map[string]*SimpleBreaker),
		defaultThreshold: threshold,
		defaultCooldown:  cooldown,
	}
}

// GetBreaker gets or creates the circuit breaker for a model.
func (m *Manager) GetBreaker(model string) *SimpleBreaker {
	m.mu.RLock()
	breaker, ok := m.breakers[model]
	m.mu.RUnlock()
	if ok {
		return breaker
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if breaker, ok = m.breakers[model]; ok {
		return breaker
	}
	breaker = New(m.defaultThreshold, m.defaultCooldown)
	m.breakers[model] = breaker
	return breaker
}
