package cache

import (
	"encoding/json"
	"hash/fnv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/praxislearn/praxis/internal/perr"
)

// CachedResponse is a successfully parsed query result held in memory.
type CachedResponse struct {
	Data     string `json:"data"`
	StoredAt int64  `json:"stored_at"`
}

// ResponseCache is a bounded LRU keyed by a 64-bit fingerprint of
// (model, prompt). The fingerprint is not collision-free: two distinct
// prompts could in principle share a slot. Accepted risk for a local
// single-user cache; see DESIGN.md.
type ResponseCache struct {
	lru *lru.Cache[uint64, CachedResponse]
}

// New creates a response cache with the given capacity.
func New(capacity int) (*ResponseCache, error) {
	c, err := lru.New[uint64, CachedResponse](capacity)
	if err != nil {
		return nil, perr.Newf(perr.StageCache, "failed to create response cache: %v", err)
	}
	return &ResponseCache{lru: c}, nil
}

// Fingerprint derives the cache key for a (model, prompt) pair.
func Fingerprint(model, prompt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(model))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(prompt))
	return h.Sum64()
}

// Get returns the cached entry for (model, prompt), promoting its recency.
func (c *ResponseCache) Get(model, prompt string) (CachedResponse, bool) {
	return c.lru.Get(Fingerprint(model, prompt))
}

// Put stores serialized data under (model, prompt), evicting the
// least-recently-used entry on overflow.
func (c *ResponseCache) Put(model, prompt, data string) {
	c.lru.Add(Fingerprint(model, prompt), CachedResponse{
		Data:     data,
		StoredAt: time.Now().Unix(),
	})
}

// Len returns the number of cached entries.
func (c *ResponseCache) Len() int {
	return c.lru.Len()
}

// Lookup deserializes the cached value for (model, prompt) into T.
// A cached entry that no longer parses is treated as a miss.
func Lookup[T any](c *ResponseCache, model, prompt string) (T, bool) {
	var out T
	entry, ok := c.Get(model, prompt)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal([]byte(entry.Data), &out); err != nil {
		return out, false
	}
	return out, true
}

// Store serializes v and caches it under (model, prompt).
func Store[T any](c *ResponseCache, model, prompt string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return perr.Newf(perr.StageSerialize, "failed to serialize response for cache: %v", err)
	}
	c.Put(model, prompt, string(data))
	return nil
}
