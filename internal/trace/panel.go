package trace

import (
	"context"
	"sync"
)

// Panel is the trace view of one agent. Switching into it fetches runs
// exactly once; renders while it stays active are served from the cache.
type Panel struct {
	cache   *Cache
	agentID string

	mu     sync.Mutex
	active bool
}

// NewPanel creates an inactive panel.
func NewPanel(cache *Cache, agentID string) *Panel {
	return &Panel{cache: cache, agentID: agentID}
}

// Activate switches into the trace view. Only the transition from inactive
// refetches; activating an active panel is a no-op.
func (p *Panel) Activate(ctx context.Context) ([]Entry, error) {
	p.mu.Lock()
	wasActive := p.active
	p.active = true
	p.mu.Unlock()

	if !wasActive {
		p.cache.Invalidate(p.agentID)
	}
	runs, err := p.cache.Get(ctx, p.agentID)
	if err != nil {
		return nil, err
	}
	return Build(runs), nil
}

// Deactivate switches back to the chat view.
func (p *Panel) Deactivate() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

// Active reports whether the trace view is shown.
func (p *Panel) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Entries renders from the cache without fetching.
func (p *Panel) Entries() []Entry {
	runs, _ := p.cache.Peek(p.agentID)
	return Build(runs)
}

// Refresh drops the cached runs and fetches again.
func (p *Panel) Refresh(ctx context.Context) ([]Entry, error) {
	p.cache.Invalidate(p.agentID)
	runs, err := p.cache.Get(ctx, p.agentID)
	if err != nil {
		return nil, err
	}
	return Build(runs), nil
}
