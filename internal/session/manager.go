package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tapper/internal/game"
	"tapper/internal/metrics"
	"tapper/internal/player"
	"tapper/internal/quest"
)

// Options tunes the manager. Zero values fall back to the defaults used in
// production: 1s quiet period, the canonical economy, the real clock.
type Options struct {
	Economy     game.Economy
	QuietPeriod time.Duration
	Clock       game.Clock
	Logger      *zap.Logger

	// OnSave is invoked after every flush attempt with its result. Used
	// for metrics; may be nil.
	OnSave func(err error)
}

// Manager hands out one live Session per user, loading progression from the
// account store on first access. There is no cross-session locking: two
// browser tabs share one server session here, but two server instances
// would still be last-write-wins, which the design accepts.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	players player.Repo
	catalog quest.Repo
	opts    Options
}

func NewManager(players player.Repo, catalog quest.Repo, opts Options) *Manager {
	if opts.Economy == (game.Economy{}) {
		opts.Economy = game.DefaultEconomy()
	}
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = game.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		players:  players,
		catalog:  catalog,
		opts:     opts,
	}
}

// Get returns the live session for a user, creating it from the stored
// snapshot and the current quest catalog on first access.
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	u, err := m.players.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	st, err := game.FromSnapshot(u.Progression)
	if err != nil {
		return nil, err
	}
	finite, err := m.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	s := &Session{
		userID: userID,
		state:  st,
		engine: quest.NewEngine(finite),
		eco:    m.opts.Economy,
		repo:   m.players,
		logger: m.opts.Logger,
		onSave: m.opts.OnSave,
	}
	s.saver = NewDebouncer(m.opts.QuietPeriod, s.flush)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Lost the race: keep the first one so both tabs share a session.
	if existing, ok := m.sessions[userID]; ok {
		s.saver.Stop()
		return existing, nil
	}
	m.sessions[userID] = s
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return s, nil
}

// Active reports how many sessions are resident.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Drop flushes and removes a user's session, if any. Used on logout and
// after an admin rewrites the user's progression directly.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Evict removes a user's session without flushing it, discarding any
// pending in-memory state. Used after an admin rewrites the stored
// progression directly: a flush here would clobber the fresh record with
// the session's stale state.
func (m *Manager) Evict(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if ok {
		s.saver.Stop()
	}
}

// ReplaceCatalog pushes an admin catalog edit into every live session.
func (m *Manager) ReplaceCatalog(catalog []quest.Quest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.ReplaceCatalog(catalog)
	}
}

// Touch records presence for a user, best effort.
func (m *Manager) Touch(ctx context.Context, userID string) {
	_ = m.players.Touch(ctx, userID, m.opts.Clock.Now())
}

// Shutdown flushes every live session synchronously.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	metrics.SessionsActive.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
