package model

import "github.com/shopspring/decimal"

// ProductStatus is the catalog lifecycle state of a product.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

// InventorySnapshot is a read-only view of live stock for one product,
// fetched per reconciliation pass. The core never mutates stock.
type InventorySnapshot struct {
	ProductRef   string        `json:"productRef"`
	AvailableQty int           `json:"availableQty"`
	Status       ProductStatus `json:"status"`
}

// Verdict classifies how much of a requested line can be fulfilled.
type Verdict string

const (
	// VerdictFull means availableQty >= requestedQty.
	VerdictFull Verdict = "full"
	// VerdictPartial means 0 < availableQty < requestedQty.
	VerdictPartial Verdict = "partial"
	// VerdictNone means zero stock, an inactive product, or a failed
	// fetch. A failed fetch is never treated as available stock.
	VerdictNone Verdict = "none"
)

// LineVerdict is the per-line outcome of a reconciliation pass.
type LineVerdict struct {
	ProductRef     string          `json:"productRef"`
	Verdict        Verdict         `json:"verdict"`
	RequestedQty   int             `json:"requestedQty"`
	FulfillableQty int             `json:"fulfillableQty"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Payable        decimal.Decimal `json:"payable"`
}

// Shortfall returns how many requested units cannot be fulfilled.
func (v LineVerdict) Shortfall() int {
	return v.RequestedQty - v.FulfillableQty
}

// ReconciliationReport is the full outcome of one reconciliation pass.
// AdjustedSubtotal only counts fulfillable units and is the sole value
// allowed to flow into checkout.
type ReconciliationReport struct {
	Token            uint64          `json:"-"`
	Lines            []LineVerdict   `json:"lines"`
	AdjustedSubtotal decimal.Decimal `json:"adjustedSubtotal"`
}

// Clean reports whether every line came back fully available.
func (r ReconciliationReport) Clean() bool {
	for _, l := range r.Lines {
		if l.Verdict != VerdictFull {
			return false
		}
	}
	return true
}
