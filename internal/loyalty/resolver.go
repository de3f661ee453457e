package loyalty

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"petkart/internal/model"
)

// ResolverConfig bounds the retry policy for the authoritative fetch.
type ResolverConfig struct {
	RetryAttempts int
	RetryDelay    time.Duration
}

// BalanceResolver reconciles the two balance sources for one account.
// It answers immediately from the history-derived fallback and keeps
// retrying the authoritative service on a fixed schedule; once the
// authoritative value arrives it always wins, even when lower than the
// estimate already shown, and the current selection is re-clamped.
type BalanceResolver struct {
	service AccountService
	config  ResolverConfig
	logger  zerolog.Logger

	mu        sync.Mutex
	balance   int
	source    model.BalanceSource
	selection int
	resolved  bool

	done chan struct{}
}

// NewBalanceResolver creates a resolver for the given account service.
func NewBalanceResolver(service AccountService, config ResolverConfig, logger zerolog.Logger) *BalanceResolver {
	return &BalanceResolver{
		service: service,
		config:  config,
		logger:  logger.With().Str("component", "balance-resolver").Logger(),
		source:  model.BalanceDerived,
		done:    make(chan struct{}),
	}
}

// Start primes the resolver from the fallback source and launches the
// bounded authoritative fetch in the background. Cancelling ctx stops
// the retry loop, so callers must tie it to the owning view's lifetime.
func (r *BalanceResolver) Start(ctx context.Context, accountRef string) {
	derived, err := r.service.DeriveBalanceFromHistory(ctx, accountRef)
	if err != nil {
		r.logger.Warn().Err(err).Str("account_ref", accountRef).Msg("fallback balance unavailable, starting from zero")
		derived = 0
	}

	r.mu.Lock()
	r.balance = derived
	r.source = model.BalanceDerived
	r.mu.Unlock()

	go r.fetchAuthoritative(ctx, accountRef)
}

// fetchAuthoritative retries the authoritative balance on a fixed
// interval for a fixed number of attempts.
func (r *BalanceResolver) fetchAuthoritative(ctx context.Context, accountRef string) {
	defer close(r.done)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(r.config.RetryDelay),
			uint64(r.config.RetryAttempts-1),
		),
		ctx,
	)

	balance, err := backoff.RetryWithData(func() (int, error) {
		return r.service.GetPointsBalance(ctx, accountRef)
	}, policy)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("account_ref", accountRef).
			Int("attempts", r.config.RetryAttempts).
			Msg("authoritative balance never arrived, keeping derived estimate")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.balance = balance
	r.source = model.BalanceAuthoritative
	r.resolved = true
	r.selection = ClampSelection(r.selection, AvailablePoints(balance))

	r.logger.Debug().
		Str("account_ref", accountRef).
		Int("balance", balance).
		Int("selection", r.selection).
		Msg("authoritative balance applied")
}

// Balance returns the current balance and which source produced it.
func (r *BalanceResolver) Balance() (int, model.BalanceSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance, r.source
}

// SelectPoints clamps the requested redemption against the currently
// known balance and records it. The stored selection is re-clamped
// again if a lower authoritative balance arrives later.
func (r *BalanceResolver) SelectPoints(requested int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.selection = ClampSelection(requested, AvailablePoints(r.balance))
	return r.selection
}

// Selection returns the currently recorded (clamped) selection.
func (r *BalanceResolver) Selection() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selection
}

// Wait blocks until the authoritative fetch has finished (successfully
// or not). Intended for tests and for checkout submission, which wants
// the freshest balance it can get without waiting forever.
func (r *BalanceResolver) Wait(ctx context.Context) {
	select {
	case <-r.done:
	case <-ctx.Done():
	}
}
