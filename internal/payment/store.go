package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"petkart/internal/model"
)

// ChallengeStore persists the single live OTP challenge per order.
type ChallengeStore interface {
	// Put stores a challenge under its order's key with the given TTL,
	// replacing (invalidating) any live challenge for that order.
	Put(ctx context.Context, challenge model.OTPChallenge, ttl time.Duration) error

	// Get returns the live challenge for an order, or nil when none
	// exists (never issued, expired out of the store, or spent).
	Get(ctx context.Context, orderRef uuid.UUID) (*model.OTPChallenge, error)

	// Update rewrites the stored challenge without touching its TTL.
	// Used to persist the attempt counter across failed verifications.
	Update(ctx context.Context, challenge model.OTPChallenge) error

	// Delete removes the live challenge for an order.
	Delete(ctx context.Context, orderRef uuid.UUID) error
}

// redisChallengeStore keeps challenges in Redis, relying on key expiry
// to enforce the challenge TTL server-side.
type redisChallengeStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisChallengeStore creates a Redis-backed challenge store.
func NewRedisChallengeStore(client *redis.Client, logger zerolog.Logger) ChallengeStore {
	return &redisChallengeStore{
		client: client,
		logger: logger.With().Str("component", "challenge-store").Logger(),
	}
}

func challengeKey(orderRef uuid.UUID) string {
	return fmt.Sprintf("otp:order:%s", orderRef)
}

func (s *redisChallengeStore) Put(ctx context.Context, challenge model.OTPChallenge, ttl time.Duration) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	if err := s.client.Set(ctx, challengeKey(challenge.OrderRef), data, ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("order_ref", challenge.OrderRef.String()).Msg("failed to store challenge")
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

func (s *redisChallengeStore) Get(ctx context.Context, orderRef uuid.UUID) (*model.OTPChallenge, error) {
	data, err := s.client.Get(ctx, challengeKey(orderRef)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	var challenge model.OTPChallenge
	if err := json.Unmarshal(data, &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}
	return &challenge, nil
}

func (s *redisChallengeStore) Update(ctx context.Context, challenge model.OTPChallenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	// KeepTTL so a failed attempt does not extend the challenge's life.
	if err := s.client.Set(ctx, challengeKey(challenge.OrderRef), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	return nil
}

func (s *redisChallengeStore) Delete(ctx context.Context, orderRef uuid.UUID) error {
	if err := s.client.Del(ctx, challengeKey(orderRef)).Err(); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}
