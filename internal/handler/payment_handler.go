package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"petkart/internal/model"
	"petkart/internal/payment"
	"petkart/internal/repository"
	"petkart/internal/session"
)

// PaymentHandler drives the OTP confirmation flow over HTTP.
type PaymentHandler struct {
	confirmer *payment.Confirmer
	orders    repository.OrderRepository
	sessions  *session.Manager
	logger    zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(confirmer *payment.Confirmer, orders repository.OrderRepository, sessions *session.Manager, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		confirmer: confirmer,
		orders:    orders,
		sessions:  sessions,
		logger:    logger.With().Str("handler", "payment").Logger(),
	}
}

func orderRefFromPath(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	ref, err := uuid.Parse(r.PathValue("ref"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid order reference", logger)
		return uuid.Nil, false
	}
	return ref, true
}

type requestChallengeRequest struct {
	Card  model.CardDetails `json:"card"`
	Email string            `json:"email,omitempty"`
}

type challengeView struct {
	ChallengeID string `json:"challengeId"`
	ExpiresAt   string `json:"expiresAt"`
}

// RequestChallenge handles POST /api/orders/{ref}/otp requests. The
// passcode itself travels only over the notification channel, never in
// this response.
func (h *PaymentHandler) RequestChallenge(w http.ResponseWriter, r *http.Request) {
	ref, ok := orderRefFromPath(w, r, h.logger)
	if !ok {
		return
	}

	var req requestChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	challenge, err := h.confirmer.RequestChallenge(r.Context(), ref, req.Card, req.Email)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, challengeView{
		ChallengeID: challenge.ID.String(),
		ExpiresAt:   challenge.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyView struct {
	Outcome model.VerifyOutcome     `json:"outcome"`
	State   model.ConfirmationState `json:"state"`
}

// Verify handles POST /api/orders/{ref}/otp/verify requests. On a
// match the order is finalised and the session's cart is destroyed.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ref, ok := orderRefFromPath(w, r, h.logger)
	if !ok {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	outcome, err := h.confirmer.Verify(r.Context(), ref, req.Code)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if outcome == model.VerifyMatch {
		if id := r.Header.Get(sessionIDHeader); id != "" {
			if s, ok := h.sessions.Get(id); ok {
				s.Ledger.Clear()
			}
		}
	}

	state := model.StateIdle
	if outcome == model.VerifyMatch {
		state = model.StateVerified
	}
	writeJSON(w, http.StatusOK, verifyView{
		Outcome: outcome,
		State:   state,
	})
}

// GetOrder handles GET /api/orders/{ref} requests.
func (h *PaymentHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ref, ok := orderRefFromPath(w, r, h.logger)
	if !ok {
		return
	}

	draft, err := h.orders.GetByRef(r.Context(), ref)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// State handles GET /api/orders/{ref}/confirmation requests.
func (h *PaymentHandler) State(w http.ResponseWriter, r *http.Request) {
	ref, ok := orderRefFromPath(w, r, h.logger)
	if !ok {
		return
	}

	state, err := h.confirmer.State(r.Context(), ref)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.ConfirmationState{"state": state})
}

// Cancel handles DELETE /api/orders/{ref}/otp requests, returning the
// confirmation flow to idle.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ref, ok := orderRefFromPath(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.confirmer.Cancel(r.Context(), ref); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
