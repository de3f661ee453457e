// Package inventory translates what the customer wants into what can
// actually be charged, using live stock data at evaluation time.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"petkart/internal/model"
)

// ErrProductNotFound indicates the inventory service has no record of
// the product. It is distinguished from transient failures for logging,
// but both fail safe to a None verdict during reconciliation.
var ErrProductNotFound = model.NewDomainError("INVENTORY_NOT_FOUND", "Product not known to inventory")

// Lookup fetches live stock for a single product.
type Lookup interface {
	// GetProduct returns the current availability snapshot for the
	// given product reference.
	GetProduct(ctx context.Context, productRef string) (*model.InventorySnapshot, error)
}

// httpLookup implements Lookup against the inventory service's REST
// API, with a circuit breaker so a struggling upstream degrades into
// fast transient errors instead of piled-up timeouts.
type httpLookup struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*model.InventorySnapshot]
	logger  zerolog.Logger
}

// NewHTTPLookup creates an inventory lookup client for the given base URL.
func NewHTTPLookup(baseURL string, timeout time.Duration, logger zerolog.Logger) Lookup {
	logger = logger.With().Str("component", "inventory-lookup").Logger()

	settings := gobreaker.Settings{
		Name:    "inventory-lookup",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 > counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("inventory circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// A missing product is a definitive answer, not an upstream failure.
			return err == nil || err == ErrProductNotFound
		},
	}

	return &httpLookup{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*model.InventorySnapshot](settings),
		logger:  logger,
	}
}

// GetProduct returns the current availability snapshot for one product.
func (l *httpLookup) GetProduct(ctx context.Context, productRef string) (*model.InventorySnapshot, error) {
	return l.breaker.Execute(func() (*model.InventorySnapshot, error) {
		return l.fetch(ctx, productRef)
	})
}

func (l *httpLookup) fetch(ctx context.Context, productRef string) (*model.InventorySnapshot, error) {
	url := fmt.Sprintf("%s/api/products/%s", l.baseURL, productRef)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Warn().Err(err).Str("product_ref", productRef).Msg("inventory fetch failed")
		return nil, fmt.Errorf("inventory fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		l.logger.Debug().Str("product_ref", productRef).Msg("product not found in inventory")
		return nil, ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		l.logger.Warn().
			Int("status", resp.StatusCode).
			Str("product_ref", productRef).
			Msg("unexpected inventory response")
		return nil, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	var snapshot model.InventorySnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode inventory response: %w", err)
	}
	snapshot.ProductRef = productRef

	return &snapshot, nil
}
