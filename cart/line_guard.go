package cart

import "sync"

// LineGuard tracks cart lines with a mutation in flight. A line is keyed by
// the owning session and the product.
type LineGuard struct {
	mu   sync.Mutex
	busy map[string]map[string]struct{}
}

func NewLineGuard() *LineGuard {
	return &LineGuard{busy: make(map[string]map[string]struct{})}
}

// Acquire marks the line busy. ok is false if it already was; release must
// be called exactly once when ok is true.
func (g *LineGuard) Acquire(owner, productID string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lines := g.busy[owner]
	if lines == nil {
		lines = make(map[string]struct{})
		g.busy[owner] = lines
	}
	if _, taken := lines[productID]; taken {
		return nil, false
	}
	lines[productID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() { g.release(owner, productID) })
	}, true
}

func (g *LineGuard) release(owner, productID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	lines := g.busy[owner]
	delete(lines, productID)
	if len(lines) == 0 {
		delete(g.busy, owner)
	}
}

func (g *LineGuard) Busy(owner, productID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[owner][productID]
	return ok
}

// BusyLines is the set of products with a mutation in flight for owner,
// used to render their controls disabled.
func (g *LineGuard) BusyLines(owner string) map[string]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]bool, len(g.busy[owner]))
	for id := range g.busy[owner] {
		out[id] = true
	}
	return out
}

// Forget drops every mark held for owner. It is called when the owning
// session is invalidated.
func (g *LineGuard) Forget(owner string) {
	g.mu.Lock()
	delete(g.busy, owner)
	g.mu.Unlock()
}
