package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-service/models"
)

const contextKey = "session.state"

const cacheTTL = 30 * time.Second

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Tokens     *TokenInspector
	Logger     *zap.Logger
}

type state struct {
	id   string
	data *Data
}

type cached struct {
	data     *Data
	loadedAt time.Time
}

// Manager binds a Store to gin. Each request loads its session once into the
// gin context; handlers read it from there. Recently read sessions are kept
// in a short-lived local cache that store events evict, so an invalidation
// on any instance is seen here on the next request.
type Manager struct {
	store  Store
	opts   Options
	now    func() time.Time
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]cached

	unsubscribe func()
}

func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "storefront_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.Tokens == nil {
		opts.Tokens = NewTokenInspector("")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := &Manager{
		store:  store,
		opts:   opts,
		now:    time.Now,
		logger: opts.Logger,
		cache:  make(map[string]cached),
	}
	m.unsubscribe = store.Subscribe(func(e Event) {
		m.evict(e.SessionID)
	})
	return m
}

// Subscribe registers fn for session events from the underlying store.
func (m *Manager) Subscribe(fn func(Event)) func() {
	return m.store.Subscribe(fn)
}

func (m *Manager) Close() {
	m.unsubscribe()
}

func (m *Manager) evict(id string) {
	m.mu.Lock()
	delete(m.cache, id)
	m.mu.Unlock()
}

func (m *Manager) remember(id string, data *Data) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[id] = cached{data: data.clone(), loadedAt: now}
	if len(m.cache) > 4096 {
		for k, v := range m.cache {
			if now.Sub(v.loadedAt) > cacheTTL {
				delete(m.cache, k)
			}
		}
	}
}

func (m *Manager) load(ctx context.Context, id string) (*Data, error) {
	m.mu.Lock()
	entry, ok := m.cache[id]
	m.mu.Unlock()
	if ok && m.now().Sub(entry.loadedAt) < cacheTTL {
		return entry.data.clone(), nil
	}

	data, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.remember(id, data)
	return data, nil
}

func (m *Manager) save(ctx context.Context, id string, data *Data) error {
	if err := m.store.Save(ctx, id, data); err != nil {
		return err
	}
	m.remember(id, data)
	return nil
}

func (m *Manager) setCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.opts.CookieName, id, int(m.opts.TTL.Seconds()), "/", "", m.opts.Secure, true)
}

// Middleware loads the session for the request, issuing a fresh cookie when
// the browser has none. A token past its exp is dropped and the session
// invalidated before any handler sees it.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := c.Cookie(m.opts.CookieName)
		if err != nil || id == "" {
			id = uuid.NewString()
			m.setCookie(c, id)
		}

		data, err := m.load(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				m.logger.Error("Failed to load session", zap.Error(err))
			}
			data = &Data{}
		}

		if data.Token != "" && m.opts.Tokens.Expired(data.Token, m.now()) {
			flashes := data.Flashes
			if err := m.store.Invalidate(ctx, id); err != nil {
				m.logger.Warn("Failed to invalidate expired session", zap.Error(err))
			}
			data = &Data{Flashes: append(flashes, Flash{Kind: FlashInfo, Message: "Your session has expired. Please sign in again."})}
			if err := m.save(ctx, id, data); err != nil {
				m.logger.Warn("Failed to save session", zap.Error(err))
			}
		}

		c.Set(contextKey, &state{id: id, data: data})
		c.Next()
	}
}

func (m *Manager) state(c *gin.Context) *state {
	if v, ok := c.Get(contextKey); ok {
		if st, ok := v.(*state); ok {
			return st
		}
	}
	st := &state{data: &Data{}}
	c.Set(contextKey, st)
	return st
}

// Current returns the session loaded for this request. It is never nil.
func (m *Manager) Current(c *gin.Context) *Data {
	return m.state(c).data
}

// ID is the opaque session id from the cookie.
func (m *Manager) ID(c *gin.Context) string {
	return m.state(c).id
}

// Token is a shortcut for Current(c).Token.
func (m *Manager) Token(c *gin.Context) string {
	return m.Current(c).Token
}

// rotate moves the request onto a new session id, invalidating the old one.
func (m *Manager) rotate(c *gin.Context, data *Data) error {
	ctx := c.Request.Context()
	st := m.state(c)
	if st.id != "" {
		if err := m.store.Invalidate(ctx, st.id); err != nil {
			m.logger.Warn("Failed to invalidate session", zap.Error(err))
		}
	}
	id := uuid.NewString()
	if err := m.save(ctx, id, data); err != nil {
		return err
	}
	m.setCookie(c, id)
	st.id = id
	st.data = data
	return nil
}

// Login stores the session pair under a new session id.
func (m *Manager) Login(c *gin.Context, pair models.SessionPair) error {
	current := m.Current(c)
	return m.rotate(c, &Data{Token: pair.Token, User: pair.User, Flashes: current.Flashes})
}

// Logout drops the pair and moves to a fresh anonymous session. Pending
// flashes survive so the confirmation can be shown.
func (m *Manager) Logout(c *gin.Context) error {
	current := m.Current(c)
	return m.rotate(c, &Data{Flashes: current.Flashes})
}

// Flash queues a message for the next rendered page.
func (m *Manager) Flash(c *gin.Context, kind, message string) {
	st := m.state(c)
	st.data.Flashes = append(st.data.Flashes, Flash{Kind: kind, Message: message})
	if st.id == "" {
		return
	}
	if err := m.save(c.Request.Context(), st.id, st.data); err != nil {
		m.logger.Warn("Failed to save flash", zap.Error(err))
	}
}

// PopFlashes returns and clears the pending flashes.
func (m *Manager) PopFlashes(c *gin.Context) []Flash {
	st := m.state(c)
	flashes := st.data.Flashes
	if len(flashes) == 0 {
		return nil
	}
	st.data.Flashes = nil
	if st.id != "" {
		if err := m.save(c.Request.Context(), st.id, st.data); err != nil {
			m.logger.Warn("Failed to clear flashes", zap.Error(err))
		}
	}
	return flashes
}

// Expire drops the pair after the API rejected the token.
func (m *Manager) Expire(c *gin.Context) {
	st := m.state(c)
	ctx := c.Request.Context()
	if st.id != "" {
		if err := m.store.Invalidate(ctx, st.id); err != nil {
			m.logger.Warn("Failed to invalidate session", zap.Error(err))
		}
	}
	st.data = &Data{Flashes: append(st.data.Flashes, Flash{Kind: FlashInfo, Message: "Your session has expired. Please sign in again."})}
	if st.id != "" {
		if err := m.save(ctx, st.id, st.data); err != nil {
			m.logger.Warn("Failed to save session", zap.Error(err))
		}
	}
}
