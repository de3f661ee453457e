package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// AccountService exposes the two balance sources the resolver works
// with. The derived balance is computed from historical transaction
// records and is only trusted until the authoritative answer arrives.
type AccountService interface {
	// GetPointsBalance returns the authoritative points balance.
	GetPointsBalance(ctx context.Context, accountRef string) (int, error)

	// DeriveBalanceFromHistory returns a fallback balance estimate.
	DeriveBalanceFromHistory(ctx context.Context, accountRef string) (int, error)
}

// httpAccountService implements AccountService against the account
// service's REST API.
type httpAccountService struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPAccountService creates an account service client.
func NewHTTPAccountService(baseURL string, timeout time.Duration, logger zerolog.Logger) AccountService {
	return &httpAccountService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "account-service").Logger(),
	}
}

type balanceResponse struct {
	PointsBalance int `json:"pointsBalance"`
}

func (s *httpAccountService) GetPointsBalance(ctx context.Context, accountRef string) (int, error) {
	return s.fetchBalance(ctx, fmt.Sprintf("%s/api/accounts/%s/points", s.baseURL, accountRef))
}

func (s *httpAccountService) DeriveBalanceFromHistory(ctx context.Context, accountRef string) (int, error) {
	return s.fetchBalance(ctx, fmt.Sprintf("%s/api/accounts/%s/points/derived", s.baseURL, accountRef))
}

func (s *httpAccountService) fetchBalance(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build balance request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("balance fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("account service returned status %d", resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode balance response: %w", err)
	}

	if body.PointsBalance < 0 {
		return 0, fmt.Errorf("account service returned negative balance %d", body.PointsBalance)
	}

	return body.PointsBalance, nil
}
