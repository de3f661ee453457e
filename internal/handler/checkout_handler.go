package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"petkart/internal/checkout"
	"petkart/internal/loyalty"
	"petkart/internal/model"
	"petkart/internal/session"
)

// CheckoutHandler handles loyalty selection and order submission.
type CheckoutHandler struct {
	sessions     *session.Manager
	orchestrator *checkout.Orchestrator
	logger       zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(sessions *session.Manager, orchestrator *checkout.Orchestrator, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		sessions:     sessions,
		orchestrator: orchestrator,
		logger:       logger.With().Str("handler", "checkout").Logger(),
	}
}

type balanceView struct {
	Balance         int                 `json:"balance"`
	Source          model.BalanceSource `json:"source"`
	AvailablePoints int                 `json:"availablePoints"`
	Selection       int                 `json:"selection"`
}

// Balance handles GET /api/loyalty/balance requests.
func (h *CheckoutHandler) Balance(w http.ResponseWriter, r *http.Request) {
	s := resolveSession(w, r, h.sessions, h.logger)
	if s == nil {
		return
	}

	balance, source := s.Resolver.Balance()
	writeJSON(w, http.StatusOK, balanceView{
		Balance:         balance,
		Source:          source,
		AvailablePoints: loyalty.AvailablePoints(balance),
		Selection:       s.Resolver.Selection(),
	})
}

type selectPointsRequest struct {
	Points int `json:"points"`
}

// SelectPoints handles POST /api/loyalty/selection requests. The
// response carries the clamped selection, which may be lower than what
// was asked for.
func (h *CheckoutHandler) SelectPoints(w http.ResponseWriter, r *http.Request) {
	s := resolveSession(w, r, h.sessions, h.logger)
	if s == nil {
		return
	}

	var req selectPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	clamped := s.Resolver.SelectPoints(req.Points)
	balance, source := s.Resolver.Balance()
	writeJSON(w, http.StatusOK, balanceView{
		Balance:         balance,
		Source:          source,
		AvailablePoints: loyalty.AvailablePoints(balance),
		Selection:       clamped,
	})
}

type submitRequest struct {
	Billing               model.Address `json:"billing"`
	Shipping              model.Address `json:"shipping"`
	ShippingSameAsBilling bool          `json:"shippingSameAsBilling"`
	PaymentMethod         string        `json:"paymentMethod"`
	ContactEmail          string        `json:"contactEmail"`
}

// Submit handles POST /api/checkout requests. A fresh reconciliation
// pass runs immediately before submission so the charged subtotal
// reflects stock at submission time, not at cart-view time.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s := resolveSession(w, r, h.sessions, h.logger)
	if s == nil {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	report := s.Reconciler.Reconcile(r.Context(), s.Ledger.Lines())

	// Re-clamp against the freshest balance before pricing the discount.
	points := s.Resolver.SelectPoints(s.Resolver.Selection())

	draft, err := h.orchestrator.Submit(r.Context(), &checkout.SubmitRequest{
		Report:                report,
		PointsRedeemed:        points,
		Billing:               req.Billing,
		Shipping:              req.Shipping,
		ShippingSameAsBilling: req.ShippingSameAsBilling,
		PaymentMethod:         req.PaymentMethod,
		ContactEmail:          req.ContactEmail,
	})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, draft)
}
