package search

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned to a call that a newer call for the same key
// replaced, either while it waited out the window or while it was in flight.
var ErrSuperseded = errors.New("superseded by a newer request")

type pending struct {
	seq        uint64
	superseded chan struct{}
	cancel     context.CancelFunc
}

// Debouncer collapses bursts of calls per key: only a call that sees no
// newer call for window proceeds, and only the newest call's result counts.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[string]*pending
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*pending),
	}
}

// Ticket is held by the call that survived the window.
type Ticket struct {
	d   *Debouncer
	key string
	p   *pending
	ctx context.Context
}

// Wait registers a call for key and blocks for the debounce window. It
// returns ErrSuperseded if a newer call for key arrives first, or the
// context's error if ctx ends.
func (d *Debouncer) Wait(ctx context.Context, key string) (*Ticket, error) {
	callCtx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	d.seq++
	p := &pending{seq: d.seq, superseded: make(chan struct{}), cancel: cancel}
	if prev, ok := d.pending[key]; ok {
		close(prev.superseded)
		prev.cancel()
	}
	d.pending[key] = p
	d.mu.Unlock()

	timer := time.NewTimer(d.window)
	defer timer.Stop()

	select {
	case <-timer.C:
		d.mu.Lock()
		current := d.pending[key] == p
		d.mu.Unlock()
		if !current {
			return nil, ErrSuperseded
		}
		return &Ticket{d: d, key: key, p: p, ctx: callCtx}, nil
	case <-p.superseded:
		return nil, ErrSuperseded
	case <-ctx.Done():
		d.release(key, p)
		return nil, ctx.Err()
	}
}

func (d *Debouncer) release(key string, p *pending) {
	d.mu.Lock()
	if d.pending[key] == p {
		delete(d.pending, key)
	}
	d.mu.Unlock()
	p.cancel()
}

// Context is cancelled as soon as a newer call for the same key arrives.
func (t *Ticket) Context() context.Context {
	return t.ctx
}

func (t *Ticket) Seq() uint64 {
	return t.p.seq
}

// Current reports whether no newer call for the key has arrived.
func (t *Ticket) Current() bool {
	select {
	case <-t.p.superseded:
		return false
	default:
		return true
	}
}

// Done releases the key.
func (t *Ticket) Done() {
	t.d.release(t.key, t.p)
}
