// Package session ties the per-customer mutable state (cart ledger,
// reconciler, balance resolver) to an explicit session identity with
// init and teardown, instead of process-wide implicit globals.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"petkart/internal/cart"
	"petkart/internal/inventory"
	"petkart/internal/loyalty"
	"petkart/internal/metrics"
)

// Session owns one customer's checkout flow state. Each piece is owned
// by exactly one flow at a time; no locking is needed inside the flow.
type Session struct {
	ID         string
	AccountRef string
	Ledger     *cart.Ledger
	Reconciler *inventory.Reconciler
	Resolver   *loyalty.BalanceResolver

	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the session-scoped context. In-flight reconciliation
// and balance retries stop when the session is closed.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close tears the session down, cancelling any in-flight background work.
func (s *Session) Close() {
	s.cancel()
}

// Manager creates and tracks sessions.
type Manager struct {
	lookup      inventory.Lookup
	accounts    loyalty.AccountService
	resolverCfg loyalty.ResolverConfig
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	baseCtx context.Context
	stop    context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. Sessions derive their contexts
// from the manager's, so Shutdown cancels everything at once.
func NewManager(
	lookup inventory.Lookup,
	accounts loyalty.AccountService,
	resolverCfg loyalty.ResolverConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		lookup:      lookup,
		accounts:    accounts,
		resolverCfg: resolverCfg,
		metrics:     m,
		logger:      logger.With().Str("component", "session-manager").Logger(),
		baseCtx:     ctx,
		stop:        cancel,
		sessions:    make(map[string]*Session),
	}
}

// GetOrCreate returns the session for the given identity, creating it
// (and starting its balance resolver) on first use.
func (m *Manager) GetOrCreate(id, accountRef string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	s := &Session{
		ID:         id,
		AccountRef: accountRef,
		Ledger:     cart.NewLedger(m.logger),
		Reconciler: inventory.NewReconciler(m.lookup, m.metrics, m.logger),
		Resolver:   loyalty.NewBalanceResolver(m.accounts, m.resolverCfg, m.logger),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.Resolver.Start(ctx, accountRef)

	m.sessions[id] = s
	m.logger.Debug().Str("session_id", id).Str("account_ref", accountRef).Msg("session created")
	return s
}

// Get returns an existing session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down and forgets one session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.Close()
		delete(m.sessions, id)
		m.logger.Debug().Str("session_id", id).Msg("session closed")
	}
}

// Shutdown tears down every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stop()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}
