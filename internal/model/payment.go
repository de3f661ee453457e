package model

import (
	"time"

	"github.com/google/uuid"
)

// CardDetails is the payment instrument entered at checkout. It is
// syntax-checked before an OTP challenge is ever issued; the card
// itself is never stored or charged by the core.
type CardDetails struct {
	HolderName string `json:"holderName"`
	Number     string `json:"number"`
	ExpiryMM   int    `json:"expiryMonth"`
	ExpiryYY   int    `json:"expiryYear"`
	CVV        string `json:"cvv"`
}

// ConfirmationState is the payment confirmation state for one order.
type ConfirmationState string

const (
	StateIdle         ConfirmationState = "idle"
	StateOTPRequested ConfirmationState = "otp_requested"
	StateVerified     ConfirmationState = "verified"
)

// OTPChallenge is a single live passcode bound to one order and one
// destination. At most one live challenge exists per order; issuing a
// new one replaces (invalidates) the previous code.
type OTPChallenge struct {
	ID          uuid.UUID `json:"id"`
	OrderRef    uuid.UUID `json:"orderRef"`
	Destination string    `json:"destination"`
	Code        string    `json:"code"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Attempts    int       `json:"attempts"`
}

// Expired reports whether the challenge is past its expiry at now.
func (c OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// VerifyOutcome is the result of checking a submitted code against the
// live challenge for an order.
type VerifyOutcome string

const (
	VerifyMatch    VerifyOutcome = "match"
	VerifyMismatch VerifyOutcome = "mismatch"
	VerifyExpired  VerifyOutcome = "expired"
)
