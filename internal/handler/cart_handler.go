package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"petkart/internal/cart"
	"petkart/internal/model"
	"petkart/internal/repository"
	"petkart/internal/session"
)

// sessionIDHeader carries the customer's session identity; accountRefHeader
// names the loyalty account bound to it on first use.
const (
	sessionIDHeader  = "X-Session-ID"
	accountRefHeader = "X-Account-Ref"
)

// CartHandler handles cart mutation and the reconciled cart view.
type CartHandler struct {
	sessions *session.Manager
	products repository.ProductRepository
	logger   zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(sessions *session.Manager, products repository.ProductRepository, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		products: products,
		logger:   logger.With().Str("handler", "cart").Logger(),
	}
}

// resolveSession returns the caller's session, creating it on first use.
func resolveSession(w http.ResponseWriter, r *http.Request, sessions *session.Manager, logger zerolog.Logger) *session.Session {
	id := r.Header.Get(sessionIDHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "missing session ID", logger)
		return nil
	}
	return sessions.GetOrCreate(id, r.Header.Get(accountRefHeader))
}

type addItemRequest struct {
	ProductRef string `json:"productRef"`
	Quantity   int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// cartView is the reconciled cart presented to the customer. The
// adjusted subtotal, not the raw one, is what checkout will charge.
type cartView struct {
	Lines            []model.CartLine    `json:"lines"`
	RawSubtotal      decimal.Decimal     `json:"rawSubtotal"`
	Verdicts         []model.LineVerdict `json:"verdicts"`
	AdjustedSubtotal decimal.Decimal     `json:"adjustedSubtotal"`
}

// AddItem handles POST /api/cart/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s := resolveSession(w, r, h.sessions, h.logger)
	if s == nil {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	item, err := h.products.GetByRef(r.Context(), req.ProductRef)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to look up product", h.logger)
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, model.ErrCodeLineNotFound, "product not found", h.logger)
		return
	}

	line, err := cart.FromCatalogItem(*item, req.Quantity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := s.Ledger.Add(line); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"lines":       s.Ledger.Lines(),
		"rawSubtotal": s.Ledger.RawSubtotal(),
	})
}

// SetQuantity handles PUT /api/cart/items/{ref} requests.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	s := resolveSession(w, r, h.sessions, h.logger)
	if s == nil {
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := s.Ledger.SetQuantity(r.PathValue("ref"), req.Quantity); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lines":       s.Ledger.Lines(),
		"rawSubtotal": s.Ledger.RawSubtotal(),
	})
}

// RemoveItem handles DELETE /api/cart/items/{ref} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := resolveSession(w, r, h.sessions, h.logger)
	if s == nil {
		return
	}

	if err := s.Ledger.Remove(r.PathValue("ref")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lines":       s.Ledger.Lines(),
		"rawSubtotal": s.Ledger.RawSubtotal(),
	})
}

// View handles GET /api/cart requests. A fresh reconciliation pass runs
// on every view so the customer always sees current availability.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	s := resolveSession(w, r, h.sessions, h.logger)
	if s == nil {
		return
	}

	report := s.Reconciler.Reconcile(r.Context(), s.Ledger.Lines())

	writeJSON(w, http.StatusOK, cartView{
		Lines:            s.Ledger.Lines(),
		RawSubtotal:      s.Ledger.RawSubtotal(),
		Verdicts:         report.Lines,
		AdjustedSubtotal: report.AdjustedSubtotal,
	})
}

// Clear handles DELETE /api/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s := resolveSession(w, r, h.sessions, h.logger)
	if s == nil {
		return
	}

	s.Ledger.Clear()
	w.WriteHeader(http.StatusNoContent)
}
