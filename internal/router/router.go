package router

import (
	"net/http"

	"petkart/internal/handler"
	"petkart/internal/metrics"
	"petkart/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	cartHandler *handler.CartHandler,
	checkoutHandler *handler.CheckoutHandler,
	paymentHandler *handler.PaymentHandler,
	m *metrics.Metrics,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.Handle("/metrics", m.Handler())

	// Cart
	mux.HandleFunc("GET /api/cart", cartHandler.View)
	mux.HandleFunc("DELETE /api/cart", cartHandler.Clear)
	mux.HandleFunc("POST /api/cart/items", cartHandler.AddItem)
	mux.HandleFunc("PUT /api/cart/items/{ref}", cartHandler.SetQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{ref}", cartHandler.RemoveItem)

	// Loyalty
	mux.HandleFunc("GET /api/loyalty/balance", checkoutHandler.Balance)
	mux.HandleFunc("POST /api/loyalty/selection", checkoutHandler.SelectPoints)

	// Checkout and payment confirmation
	mux.HandleFunc("POST /api/checkout", checkoutHandler.Submit)
	mux.HandleFunc("GET /api/orders/{ref}", paymentHandler.GetOrder)
	mux.HandleFunc("GET /api/orders/{ref}/confirmation", paymentHandler.State)
	mux.HandleFunc("POST /api/orders/{ref}/otp", paymentHandler.RequestChallenge)
	mux.HandleFunc("DELETE /api/orders/{ref}/otp", paymentHandler.Cancel)
	mux.HandleFunc("POST /api/orders/{ref}/otp/verify", paymentHandler.Verify)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger, m)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
