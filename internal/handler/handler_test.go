package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"petkart/internal/loyalty"
	"petkart/internal/metrics"
	"petkart/internal/model"
	"petkart/internal/session"
)

const testSessionID = "sess-test-1"

// stubLookup serves canned inventory snapshots.
type stubLookup struct {
	mu        sync.Mutex
	snapshots map[string]*model.InventorySnapshot
}

func newStubLookup() *stubLookup {
	return &stubLookup{snapshots: make(map[string]*model.InventorySnapshot)}
}

func (s *stubLookup) stock(ref string, qty int) *stubLookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[ref] = &model.InventorySnapshot{
		ProductRef:   ref,
		AvailableQty: qty,
		Status:       model.ProductActive,
	}
	return s
}

func (s *stubLookup) GetProduct(_ context.Context, ref string) (*model.InventorySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.snapshots[ref]; ok {
		return snap, nil
	}
	return nil, nil
}

// stubAccountService reports the same balance from both sources.
type stubAccountService struct {
	balance int
}

func (s *stubAccountService) GetPointsBalance(context.Context, string) (int, error) {
	return s.balance, nil
}

func (s *stubAccountService) DeriveBalanceFromHistory(context.Context, string) (int, error) {
	return s.balance, nil
}

// newTestSessions builds a session manager backed by in-memory stubs.
func newTestSessions(t *testing.T, lookup *stubLookup, balance int) *session.Manager {
	t.Helper()

	if lookup == nil {
		lookup = newStubLookup()
	}

	m := session.NewManager(
		lookup,
		&stubAccountService{balance: balance},
		loyalty.ResolverConfig{RetryAttempts: 1, RetryDelay: 0},
		metrics.New(),
		zerolog.Nop(),
	)
	t.Cleanup(m.Shutdown)
	return m
}

// primeSession creates the test session and waits for its balance
// resolver so handlers see a settled authoritative balance.
func primeSession(t *testing.T, sessions *session.Manager) *session.Session {
	t.Helper()

	s := sessions.GetOrCreate(testSessionID, "acct-1")
	s.Resolver.Wait(context.Background())
	return s
}

func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(sessionIDHeader, testSessionID)
	req.Header.Set(accountRefHeader, "acct-1")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(out))
}

// MockProductRepository is a mock implementation of repository.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByRef(ctx context.Context, ref string) (*model.CatalogItem, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CatalogItem), args.Error(1)
}

func (m *MockProductRepository) GetByRefs(ctx context.Context, refs []string) ([]model.CatalogItem, error) {
	args := m.Called(ctx, refs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogItem), args.Error(1)
}

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateDraft(ctx context.Context, draft *model.OrderDraft) (uuid.UUID, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOrderRepository) GetByRef(ctx context.Context, ref uuid.UUID) (*model.OrderDraft, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDraft), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, ref uuid.UUID) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}
