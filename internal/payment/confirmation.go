// Package payment gates order finalisation behind a one-time passcode.
// Verification of the passcode is the only path that marks an order
// paid.
package payment

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"petkart/internal/metrics"
	"petkart/internal/model"
	"petkart/internal/notify"
	"petkart/internal/repository"
)

var codeShapeRe = regexp.MustCompile(`^[0-9]{6}$`)

// Confirmer drives the payment confirmation state machine:
// Idle -> OTPRequested -> Verified, with expiry returning to Idle and
// failed attempts keeping the challenge live.
type Confirmer struct {
	store    ChallengeStore
	orders   repository.OrderRepository
	notifier notify.Notifier
	metrics  *metrics.Metrics
	ttl      time.Duration
	logger   zerolog.Logger

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewConfirmer creates a payment confirmer with the given challenge TTL.
func NewConfirmer(
	store ChallengeStore,
	orders repository.OrderRepository,
	notifier notify.Notifier,
	m *metrics.Metrics,
	ttl time.Duration,
	logger zerolog.Logger,
) *Confirmer {
	return &Confirmer{
		store:    store,
		orders:   orders,
		notifier: notifier,
		metrics:  m,
		ttl:      ttl,
		logger:   logger.With().Str("component", "payment-confirmation").Logger(),
		now:      time.Now,
	}
}

// RequestChallenge validates the payment instrument and, only when it
// passes, issues a fresh passcode for the order. Re-requesting before
// expiry replaces the prior code rather than stacking codes, so at most
// one challenge is ever live per order.
func (c *Confirmer) RequestChallenge(ctx context.Context, orderRef uuid.UUID, card model.CardDetails, destination string) (*model.OTPChallenge, error) {
	if errs := ValidateCard(card, c.now()); errs != nil {
		c.logger.Warn().
			Str("order_ref", orderRef.String()).
			Int("field_count", len(errs)).
			Msg("challenge refused for invalid payment instrument")
		return nil, errs
	}

	// The order must exist and still be payable.
	draft, err := c.orders.GetByRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if draft.Status == model.OrderPaid {
		return nil, repository.ErrAlreadyPaid
	}
	if destination == "" {
		destination = draft.ContactEmail
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate passcode: %w", err)
	}

	issuedAt := c.now()
	challenge := model.OTPChallenge{
		ID:          uuid.New(),
		OrderRef:    orderRef,
		Destination: destination,
		Code:        code,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(c.ttl),
	}

	if err := c.store.Put(ctx, challenge, c.ttl); err != nil {
		return nil, err
	}

	if err := c.notifier.SendOTP(ctx, destination, orderRef, code); err != nil {
		// The challenge stays live; the caller may re-request, which
		// issues and delivers a fresh code.
		c.logger.Error().Err(err).Str("order_ref", orderRef.String()).Msg("OTP delivery failed")
		return nil, fmt.Errorf("failed to deliver passcode: %w", err)
	}

	if c.metrics != nil {
		c.metrics.OTPIssued.Inc()
	}

	c.logger.Info().
		Str("order_ref", orderRef.String()).
		Str("challenge_id", challenge.ID.String()).
		Time("expires_at", challenge.ExpiresAt).
		Msg("OTP challenge issued")

	return &challenge, nil
}

// Verify checks a submitted code against the order's live challenge.
// A malformed code fails fast without consuming an attempt. On match
// the challenge is spent and the order is marked paid; AlreadyPaid and
// NotFound from that transition are terminal for the flow.
func (c *Confirmer) Verify(ctx context.Context, orderRef uuid.UUID, submittedCode string) (model.VerifyOutcome, error) {
	if !codeShapeRe.MatchString(submittedCode) {
		errs := make(model.ValidationErrors)
		errs.Add("code", "must be 6 digits")
		return model.VerifyMismatch, errs
	}

	challenge, err := c.store.Get(ctx, orderRef)
	if err != nil {
		return model.VerifyMismatch, err
	}
	if challenge == nil {
		// Never issued or already expired out of the store; back to Idle.
		c.countVerification(model.VerifyExpired)
		return model.VerifyExpired, model.ErrChallengeExpired
	}

	if challenge.Expired(c.now()) {
		if err := c.store.Delete(ctx, orderRef); err != nil {
			c.logger.Warn().Err(err).Str("order_ref", orderRef.String()).Msg("failed to clear expired challenge")
		}
		c.countVerification(model.VerifyExpired)
		return model.VerifyExpired, model.ErrChallengeExpired
	}

	if challenge.Code != submittedCode {
		challenge.Attempts++
		if err := c.store.Update(ctx, *challenge); err != nil {
			c.logger.Warn().Err(err).Str("order_ref", orderRef.String()).Msg("failed to persist attempt counter")
		}
		c.countVerification(model.VerifyMismatch)
		c.logger.Debug().
			Str("order_ref", orderRef.String()).
			Int("attempts", challenge.Attempts).
			Msg("passcode mismatch")
		return model.VerifyMismatch, model.ErrCodeInvalid
	}

	// Spend the challenge before finalising so the code can't be replayed.
	if err := c.store.Delete(ctx, orderRef); err != nil {
		return model.VerifyMismatch, fmt.Errorf("failed to spend challenge: %w", err)
	}

	if err := c.orders.MarkPaid(ctx, orderRef); err != nil {
		c.countVerification(model.VerifyMatch)
		c.logger.Error().Err(err).Str("order_ref", orderRef.String()).Msg("order finalisation failed")
		return model.VerifyMatch, err
	}

	c.countVerification(model.VerifyMatch)
	if c.metrics != nil {
		c.metrics.OrdersFinalized.Inc()
	}

	c.logger.Info().Str("order_ref", orderRef.String()).Msg("order confirmed and marked paid")
	return model.VerifyMatch, nil
}

// State reports the confirmation state for an order.
func (c *Confirmer) State(ctx context.Context, orderRef uuid.UUID) (model.ConfirmationState, error) {
	draft, err := c.orders.GetByRef(ctx, orderRef)
	if err != nil {
		return model.StateIdle, err
	}
	if draft.Status == model.OrderPaid {
		return model.StateVerified, nil
	}

	challenge, err := c.store.Get(ctx, orderRef)
	if err != nil {
		return model.StateIdle, err
	}
	if challenge != nil && !challenge.Expired(c.now()) {
		return model.StateOTPRequested, nil
	}
	return model.StateIdle, nil
}

// Cancel drops the live challenge for an order, returning the state
// machine to Idle.
func (c *Confirmer) Cancel(ctx context.Context, orderRef uuid.UUID) error {
	return c.store.Delete(ctx, orderRef)
}

func (c *Confirmer) countVerification(outcome model.VerifyOutcome) {
	if c.metrics != nil {
		c.metrics.OTPVerifications.WithLabelValues(string(outcome)).Inc()
	}
}

// generateCode draws a uniformly random 6-digit passcode.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
