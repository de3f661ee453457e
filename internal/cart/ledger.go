// Package cart holds the client's working set of line items. The
// ledger records intent only; it has no knowledge of live stock.
package cart

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"petkart/internal/model"
)

// Ledger owns the cart's line items. Lines are mutated only through
// Add/SetQuantity/Remove and the raw subtotal is recomputed on every
// mutation. A ledger is owned by exactly one flow at a time and is not
// safe for concurrent use.
type Ledger struct {
	lines    []model.CartLine
	index    map[string]int // productRef -> position in lines
	subtotal decimal.Decimal
	logger   zerolog.Logger
}

// NewLedger creates an empty cart ledger.
func NewLedger(logger zerolog.Logger) *Ledger {
	return &Ledger{
		index:    make(map[string]int),
		subtotal: decimal.Zero,
		logger:   logger.With().Str("component", "cart-ledger").Logger(),
	}
}

// Add inserts a new line or, when the product is already in the cart,
// bumps its requested quantity. qty must be a positive integer.
func (l *Ledger) Add(line model.CartLine) error {
	if line.RequestedQty < 1 {
		return model.ErrInvalidQuantity
	}
	if line.UnitPrice.IsNegative() {
		return model.NewDomainError(model.ErrCodeValidation, "Unit price cannot be negative")
	}

	if pos, ok := l.index[line.ProductRef]; ok {
		l.lines[pos].RequestedQty += line.RequestedQty
	} else {
		l.index[line.ProductRef] = len(l.lines)
		l.lines = append(l.lines, line)
	}

	l.recompute()
	l.logger.Debug().
		Str("product_ref", line.ProductRef).
		Int("requested_qty", line.RequestedQty).
		Msg("line added to cart")
	return nil
}

// SetQuantity replaces the requested quantity for an existing line.
// A quantity below 1 is rejected and the ledger is left unchanged.
func (l *Ledger) SetQuantity(productRef string, qty int) error {
	if qty < 1 {
		l.logger.Warn().
			Str("product_ref", productRef).
			Int("qty", qty).
			Msg("rejected non-positive quantity")
		return model.ErrInvalidQuantity
	}

	pos, ok := l.index[productRef]
	if !ok {
		return model.ErrLineNotFound
	}

	l.lines[pos].RequestedQty = qty
	l.recompute()
	return nil
}

// Remove deletes a line from the cart.
func (l *Ledger) Remove(productRef string) error {
	pos, ok := l.index[productRef]
	if !ok {
		return model.ErrLineNotFound
	}

	l.lines = append(l.lines[:pos], l.lines[pos+1:]...)
	delete(l.index, productRef)
	for ref, p := range l.index {
		if p > pos {
			l.index[ref] = p - 1
		}
	}

	l.recompute()
	l.logger.Debug().Str("product_ref", productRef).Msg("line removed from cart")
	return nil
}

// Clear empties the cart, e.g. after a successful order finalisation.
func (l *Ledger) Clear() {
	l.lines = nil
	l.index = make(map[string]int)
	l.subtotal = decimal.Zero
}

// Lines returns a copy of the current line items in insertion order.
func (l *Ledger) Lines() []model.CartLine {
	out := make([]model.CartLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of line items in the cart.
func (l *Ledger) Len() int {
	return len(l.lines)
}

// RawSubtotal returns sum(unitPrice x requestedQty) over all lines.
// This is the customer's intent, not a payable amount; checkout uses
// the reconciled adjusted subtotal instead.
func (l *Ledger) RawSubtotal() decimal.Decimal {
	return l.subtotal
}

func (l *Ledger) recompute() {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.LineTotal())
	}
	l.subtotal = total
}
