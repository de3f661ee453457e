package loyalty

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"petkart/internal/model"
)

// MockAccountService is a mock implementation of AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetPointsBalance(ctx context.Context, accountRef string) (int, error) {
	args := m.Called(ctx, accountRef)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountService) DeriveBalanceFromHistory(ctx context.Context, accountRef string) (int, error) {
	args := m.Called(ctx, accountRef)
	return args.Int(0), args.Error(1)
}

func testResolverConfig() ResolverConfig {
	return ResolverConfig{
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func TestBalanceResolver_DerivedThenAuthoritative(t *testing.T) {
	service := new(MockAccountService)
	service.On("DeriveBalanceFromHistory", mock.Anything, "acct-1").Return(50, nil)
	service.On("GetPointsBalance", mock.Anything, "acct-1").Return(42, nil)

	resolver := NewBalanceResolver(service, testResolverConfig(), zerolog.Nop())
	resolver.Start(context.Background(), "acct-1")

	resolver.Wait(context.Background())

	balance, source := resolver.Balance()
	assert.Equal(t, 42, balance)
	assert.Equal(t, model.BalanceAuthoritative, source)

	service.AssertExpectations(t)
}

func TestBalanceResolver_AuthoritativeWinsEvenWhenLower(t *testing.T) {
	// The derived estimate shows 100 points; the authoritative service
	// later reports only 42. The selection made against the estimate
	// must shrink to what the real balance supports.
	service := new(MockAccountService)
	service.On("DeriveBalanceFromHistory", mock.Anything, "acct-1").Return(100, nil)

	authoritative := make(chan struct{})
	service.On("GetPointsBalance", mock.Anything, "acct-1").
		Run(func(args mock.Arguments) { <-authoritative }).
		Return(42, nil)

	resolver := NewBalanceResolver(service, testResolverConfig(), zerolog.Nop())
	resolver.Start(context.Background(), "acct-1")

	balance, source := resolver.Balance()
	assert.Equal(t, 100, balance)
	assert.Equal(t, model.BalanceDerived, source)

	// Customer selects against the optimistic estimate
	assert.Equal(t, 100, resolver.SelectPoints(100))

	close(authoritative)
	resolver.Wait(context.Background())

	balance, source = resolver.Balance()
	assert.Equal(t, 42, balance)
	assert.Equal(t, model.BalanceAuthoritative, source)
	assert.Equal(t, 40, resolver.Selection(), "selection re-clamped to the authoritative balance")
}

func TestBalanceResolver_RetriesAreBounded(t *testing.T) {
	service := new(MockAccountService)
	service.On("DeriveBalanceFromHistory", mock.Anything, "acct-1").Return(30, nil)
	service.On("GetPointsBalance", mock.Anything, "acct-1").Return(0, assert.AnError)

	resolver := NewBalanceResolver(service, testResolverConfig(), zerolog.Nop())
	resolver.Start(context.Background(), "acct-1")

	resolver.Wait(context.Background())

	// Derived estimate survives when the authoritative fetch gives up
	balance, source := resolver.Balance()
	assert.Equal(t, 30, balance)
	assert.Equal(t, model.BalanceDerived, source)

	service.AssertNumberOfCalls(t, "GetPointsBalance", 3)
}

func TestBalanceResolver_FallbackUnavailableStartsFromZero(t *testing.T) {
	service := new(MockAccountService)
	service.On("DeriveBalanceFromHistory", mock.Anything, "acct-1").Return(0, assert.AnError)
	service.On("GetPointsBalance", mock.Anything, "acct-1").Return(0, assert.AnError)

	resolver := NewBalanceResolver(service, testResolverConfig(), zerolog.Nop())
	resolver.Start(context.Background(), "acct-1")

	balance, source := resolver.Balance()
	assert.Equal(t, 0, balance)
	assert.Equal(t, model.BalanceDerived, source)

	// Nothing redeemable against a zero balance
	assert.Equal(t, 0, resolver.SelectPoints(20))

	resolver.Wait(context.Background())
}

func TestBalanceResolver_ContextCancelStopsRetries(t *testing.T) {
	service := new(MockAccountService)
	service.On("DeriveBalanceFromHistory", mock.Anything, "acct-1").Return(30, nil)
	service.On("GetPointsBalance", mock.Anything, "acct-1").Return(0, assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())

	resolver := NewBalanceResolver(service, ResolverConfig{
		RetryAttempts: 1000,
		RetryDelay:    time.Hour,
	}, zerolog.Nop())
	resolver.Start(ctx, "acct-1")

	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	resolver.Wait(waitCtx)
	require.NoError(t, waitCtx.Err(), "retry loop should stop promptly after cancellation")

	balance, source := resolver.Balance()
	assert.Equal(t, 30, balance)
	assert.Equal(t, model.BalanceDerived, source)
}

func TestBalanceResolver_SelectPoints(t *testing.T) {
	service := new(MockAccountService)
	service.On("DeriveBalanceFromHistory", mock.Anything, "acct-1").Return(42, nil)
	service.On("GetPointsBalance", mock.Anything, "acct-1").Return(42, nil)

	resolver := NewBalanceResolver(service, testResolverConfig(), zerolog.Nop())
	resolver.Start(context.Background(), "acct-1")
	resolver.Wait(context.Background())

	tests := []struct {
		name      string
		requested int
		expected  int
	}{
		{name: "Floored to redeem block", requested: 37, expected: 35},
		{name: "Above available", requested: 50, expected: 40},
		{name: "Exact block", requested: 25, expected: 25},
		{name: "Negative", requested: -1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolver.SelectPoints(tt.requested))
			assert.Equal(t, tt.expected, resolver.Selection())
		})
	}
}
