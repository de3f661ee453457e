package model

import "github.com/shopspring/decimal"

// CartLine is the canonical line-item shape used everywhere in the core.
// It is populated once at the ingress boundary (see cart.FromCatalogItem);
// downstream code never reconciles alternative field spellings.
type CartLine struct {
	ProductRef   string          `json:"productRef"`
	DisplayName  string          `json:"displayName"`
	ImageRef     string          `json:"imageRef,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	RequestedQty int             `json:"requestedQty"`
}

// LineTotal returns unitPrice x requestedQty for this line.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.RequestedQty)))
}

// CatalogItem is the loose shape the catalog/cart REST backend emits.
// Field spellings drift between cart and catalog representations
// (productId vs productID, pName vs name), so both variants are decoded
// here and resolved exactly once by the ingress adapter.
type CatalogItem struct {
	ProductID    string          `json:"productId,omitempty"`
	ProductIDAlt string          `json:"productID,omitempty"`
	Name         string          `json:"name,omitempty"`
	PName        string          `json:"pName,omitempty"`
	Price        decimal.Decimal `json:"price"`
	ImageRef     string          `json:"image,omitempty"`
}
