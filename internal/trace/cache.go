package trace

import (
	"context"
	"sync"

	"github.com/xiaot623/agentdesk/internal/domain"
)

// Fetcher loads the flat run list of an agent.
type Fetcher interface {
	ListRuns(ctx context.Context, agentID string) ([]domain.AgentRun, error)
}

// Cache holds fetched runs per agent id until invalidated. Failed fetches
// are not cached.
type Cache struct {
	fetcher Fetcher

	mu      sync.Mutex
	entries map[string][]domain.AgentRun
}

// NewCache creates an empty cache.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[string][]domain.AgentRun),
	}
}

// Get returns cached runs, fetching them on a miss.
func (c *Cache) Get(ctx context.Context, agentID string) ([]domain.AgentRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if runs, ok := c.entries[agentID]; ok {
		return runs, nil
	}
	runs, err := c.fetcher.ListRuns(ctx, agentID)
	if err != nil {
		return nil, err
	}
	c.entries[agentID] = runs
	return runs, nil
}

// Peek returns cached runs without fetching.
func (c *Cache) Peek(agentID string) ([]domain.AgentRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	runs, ok := c.entries[agentID]
	return runs, ok
}

// Invalidate drops the cached runs of agentID.
func (c *Cache) Invalidate(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, agentID)
}
