package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cart-service/internal/cart"
	"cart-service/internal/coupon"
	"cart-service/internal/events"
	"cart-service/internal/pricing"
	"cart-service/internal/repository"
)

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager hands out live sessions, rehydrating them from the repository on first use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time

	engine    *pricing.Engine
	rule      coupon.Rule
	repo      *repository.SessionRepository
	publisher events.Publisher
}

// NewManager creates a Manager. repo and publisher may be nil.
func NewManager(engine *pricing.Engine, rule coupon.Rule, repo *repository.SessionRepository, publisher events.Publisher) *Manager {
	return &Manager{
		sessions:  make(map[string]*entry),
		now:       time.Now,
		engine:    engine,
		rule:      rule,
		repo:      repo,
		publisher: publisher,
	}
}

// Get returns the session for id. A missing or corrupt record yields a fresh session.
// When the store cannot be read, the session runs in memory only; reading is retried on
// later calls until the session is first changed.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		e.lastSeen = m.now()
	}
	m.mu.Unlock()
	if ok && !e.session.reloadable() {
		return e.session
	}

	loaded := m.load(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[id]; ok {
		if !cur.session.reloadable() || loaded.unloaded {
			return cur.session
		}
	}
	m.sessions[id] = &entry{session: loaded, lastSeen: m.now()}
	return loaded
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle drops sessions not requested within ttl and returns how many were dropped.
// Their state is rehydrated from the repository on the next Get.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	evicted := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartEviction runs EvictIdle every ttl/2 until ctx is done.
func (m *Manager) StartEviction(ctx context.Context, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(ttl); n > 0 {
				logger.Info().Msgf("Evicted %d idle sessions", n)
			}
		}
	}
}

func (m *Manager) newSession(id string) *Session {
	return &Session{
		id:        id,
		currency:  m.engine.Table().Reference(),
		cart:      cart.NewStore(),
		coupon:    coupon.NewMachine(m.rule),
		engine:    m.engine,
		repo:      m.repo,
		publisher: m.publisher,
	}
}

func (m *Manager) load(ctx context.Context, id string) *Session {
	s := m.newSession(id)
	if m.repo == nil {
		return s
	}

	record, err := m.repo.Load(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s
	case errors.Is(err, repository.ErrCorruptRecord):
		logger.Warn().Err(err).Msgf("Discarding stored state of session %s", id)
		return s
	case err != nil:
		s.unloaded = true
		s.persistFailed(fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err))
		return s
	}

	table := m.engine.Table()
	if table.Has(record.Currency) {
		s.currency = record.Currency
	} else {
		logger.Warn().Msgf("Stored currency %q of session %s is not supported, using %s", record.Currency, id, s.currency)
	}

	if record.Coupon != nil {
		restored, ok := coupon.Restore(m.rule, *record.Coupon)
		if !ok {
			logger.Warn().Msgf("Stored coupon of session %s is no longer valid", id)
		}
		s.coupon = restored
	}

	for _, line := range record.Lines {
		if !table.Has(line.Currency) {
			logger.Warn().Msgf("Stored cart of session %s has unsupported currency %q, starting empty", id, line.Currency)
			return s
		}
	}
	store, err := cart.Restore(record.Lines)
	if err != nil {
		logger.Warn().Err(err).Msgf("Stored cart of session %s is invalid, starting empty", id)
		return s
	}
	s.cart = store
	return s
}
