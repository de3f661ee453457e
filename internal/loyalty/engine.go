// Package loyalty converts points balances into currency discounts
// under the storefront's redemption rules.
package loyalty

import "github.com/shopspring/decimal"

// redeemBlock is the granularity of point redemption. Points are only
// spendable in whole blocks; any remainder stays inert until the
// balance crosses the next multiple.
const redeemBlock = 5

// Engine applies the redemption and clamping rules at a fixed currency
// value per point.
type Engine struct {
	pointValue decimal.Decimal
}

// NewEngine creates a discount engine with the given per-point value.
func NewEngine(pointValue decimal.Decimal) *Engine {
	return &Engine{pointValue: pointValue}
}

// AvailablePoints returns the redeemable portion of a balance: the
// largest multiple of the redeem block not exceeding it. Negative
// balances are treated as zero.
func AvailablePoints(balance int) int {
	if balance < 0 {
		return 0
	}
	return balance / redeemBlock * redeemBlock
}

// ClampSelection clamps a requested redemption into [0, available] and
// floors it to a multiple of the redeem block. It must be re-applied
// whenever the available amount shrinks, e.g. after the authoritative
// balance replaces a stale higher estimate.
func ClampSelection(requested, available int) int {
	if requested < 0 {
		requested = 0
	}
	if requested > available {
		requested = available
	}
	return requested / redeemBlock * redeemBlock
}

// Discount converts a selected point count into a currency discount,
// capped at the payable base (adjusted subtotal plus delivery fee) so
// the order total can never go negative.
func (e *Engine) Discount(selectedPoints int, payableBase decimal.Decimal) decimal.Decimal {
	if selectedPoints <= 0 {
		return decimal.Zero
	}

	value := e.pointValue.Mul(decimal.NewFromInt(int64(selectedPoints)))
	if value.GreaterThan(payableBase) {
		return payableBase
	}
	return value
}
