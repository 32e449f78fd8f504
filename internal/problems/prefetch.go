package problems

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/skills"
	"go.uber.org/zap"
)

// Queue is the prefetched problem queue, persisted so queued problems
// survive restarts.
type Queue struct {
	mu     sync.Mutex
	items  []Problem
	path   string
	logger *zap.Logger
}

func NewQueue(dataDir string, logger *zap.Logger) *Queue {
	q := &Queue{
		path:   filepath.Join(dataDir, "problems_cache.json"),
		logger: logger,
	}
	q.load()
	return q
}

type queueFile struct {
	Queue []Problem `json:"queue"`
}

func (q *Queue) load() {
	data, err := os.ReadFile(q.path)
	if err != nil {
		return
	}
	var f queueFile
	if err := json.Unmarshal(data, &f); err != nil {
		q.logger.Warn("Failed to parse problem queue file",
			zap.String("path", q.path), zap.Error(err))
		return
	}
	q.items = f.Queue
}

// persist is called with q.mu held.
func (q *Queue) persist() {
	data, err := json.MarshalIndent(queueFile{Queue: q.items}, "", "  ")
	if err != nil {
		q.logger.Warn("Failed to serialize problem queue", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		q.logger.Warn("Failed to create data directory", zap.Error(err))
		return
	}
	if err := os.WriteFile(q.path, data, 0o644); err != nil {
		q.logger.Warn("Failed to write problem queue", zap.String("path", q.path), zap.Error(err))
	}
}

// Len returns the number of queued problems.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Push appends a problem and persists the queue.
func (q *Queue) Push(p Problem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, p)
	q.persist()
}

// Pop removes and returns the oldest queued problem.
func (q *Queue) Pop() (Problem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Problem{}, false
	}
	p := q.items[0]
	q.items = q.items[1:]
	q.persist()
	return p, true
}

// Prefetcher keeps the queue topped up by generating problems for the two
// weakest skills in the background.
type Prefetcher struct {
	queue     *Queue
	store     *Store
	generator *Generator
	skills    *skills.Store
	cfg       config.PrefetchConfig
	logger    *zap.Logger
}

func NewPrefetcher(queue *Queue, store *Store, generator *Generator, skillStore *skills.Store, cfg config.PrefetchConfig, logger *zap.Logger) *Prefetcher {
	return &Prefetcher{
		queue:     queue,
		store:     store,
		generator: generator,
		skills:    skillStore,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run loops until ctx is cancelled, refilling the queue each tick. Generation
// happens outside the queue lock; the lock is taken only to read the length
// and append results.
func (p *Prefetcher) Run(ctx context.Context) {
	if !p.cfg.Enabled {
		return
	}

	interval := p.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("Problem prefetch loop started",
		zap.Duration("interval", interval),
		zap.Int("min_queue", p.cfg.MinQueue))

	for {
		p.refill(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info("Problem prefetch loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Prefetcher) refill(ctx context.Context) {
	if p.queue.Len() >= p.cfg.MinQueue {
		return
	}

	vector := p.skills.Load()
	for _, weak := range vector.WeakestN(2) {
		if ctx.Err() != nil {
			return
		}
		if p.queue.Len() >= p.cfg.MinQueue {
			return
		}

		// Weak skills get harder problems to push on, floored at easy-medium.
		diff := math.Max(0.3, 1.0-weak.Score)

		problem, err := p.generator.Generate(ctx, weak.Topic, diff)
		if err == nil {
			p.queue.Push(*problem)
			continue
		}

		p.logger.Warn("Prefetch generation failed, falling back to stored problems",
			zap.String("skill", weak.Topic), zap.Error(err))

		fallback := ByTopic(p.store.LoadAll(), weak.Topic)
		for i, fp := range fallback {
			if i >= 2 || p.queue.Len() >= p.cfg.MinQueue {
				break
			}
			p.queue.Push(fp)
		}
	}
}

// Next serves the next problem: queued problems first, then selection from
// the persisted pool by weakest skill.
func (p *Prefetcher) Next() *Problem {
	if problem, ok := p.queue.Pop(); ok {
		return &problem
	}
	return Pick(p.skills.Load(), p.store.LoadAll())
}
