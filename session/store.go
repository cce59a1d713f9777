package session

import (
	"context"
	"errors"
	"sync"

	"storefront-service/models"
)

var ErrSessionNotFound = errors.New("session not found")

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Data is everything the storefront keeps per browser session: the session
// pair handed out by the auth endpoints and pending flash messages.
type Data struct {
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user,omitempty"`
	Flashes []Flash      `json:"flashes,omitempty"`
}

func (d *Data) Pair() models.SessionPair {
	if d == nil {
		return models.SessionPair{}
	}
	return models.SessionPair{Token: d.Token, User: d.User}
}

func (d *Data) Authenticated() bool {
	return d.Pair().Authenticated()
}

func (d *Data) clone() *Data {
	if d == nil {
		return &Data{}
	}
	out := &Data{Token: d.Token}
	if d.User != nil {
		u := *d.User
		out.User = &u
	}
	out.Flashes = append([]Flash(nil), d.Flashes...)
	return out
}

type EventKind string

const (
	EventSaved       EventKind = "saved"
	EventInvalidated EventKind = "invalidated"
)

type Event struct {
	SessionID string
	Kind      EventKind
}

// Store persists session data. Subscribers are told about every save and
// invalidation, including those made by other instances sharing the store.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, data *Data) error
	Invalidate(ctx context.Context, id string) error
	Subscribe(fn func(Event)) (cancel func())
}

type hub struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

func (h *hub) add(fn func(Event)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func(Event))
	}
	id := h.next
	h.next++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *hub) publish(e Event) {
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
