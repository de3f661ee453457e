package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order from submission to payment.
type OrderStatus string

const (
	OrderSubmitted OrderStatus = "submitted"
	OrderPaid      OrderStatus = "paid"
)

// Address holds the billing or shipping destination for an order.
type Address struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

// OrderLine is one priced, reconciled line item on an order draft.
// Quantity is the fulfillable quantity, never the requested one.
type OrderLine struct {
	ID         uuid.UUID       `json:"-" db:"id"`
	OrderRef   uuid.UUID       `json:"-" db:"order_ref"`
	ProductRef string          `json:"productRef" db:"product_ref"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

// OrderDraft is the assembled order as submitted at checkout. It is
// immutable once persisted; the status moves to paid only through the
// payment confirmation flow.
//
// Invariants: Discount = min(PointsRedeemed x point value, Subtotal+DeliveryFee)
// and Total = max(0, Subtotal + DeliveryFee - Discount).
type OrderDraft struct {
	Ref            uuid.UUID       `json:"ref" db:"ref"`
	Lines          []OrderLine     `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	PointsRedeemed int             `json:"pointsRedeemed" db:"points_redeemed"`
	Discount       decimal.Decimal `json:"discount" db:"discount"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Billing        Address         `json:"billing"`
	Shipping       Address         `json:"shipping"`
	PaymentMethod  string          `json:"paymentMethod" db:"payment_method"`
	ContactEmail   string          `json:"contactEmail" db:"contact_email"`
	Status         OrderStatus     `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}
