package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"petkart/internal/model"
)

// FromCatalogItem maps a loose catalog payload onto the canonical
// CartLine. The backend's cart and catalog representations disagree on
// field spellings, so the drift is resolved here once instead of with
// fallback chains scattered through the pricing logic.
func FromCatalogItem(item model.CatalogItem, qty int) (model.CartLine, error) {
	ref := item.ProductID
	if ref == "" {
		ref = item.ProductIDAlt
	}
	if strings.TrimSpace(ref) == "" {
		return model.CartLine{}, model.NewDomainError(model.ErrCodeValidation, "Catalog item has no product reference")
	}

	name := item.Name
	if name == "" {
		name = item.PName
	}

	if qty < 1 {
		return model.CartLine{}, model.ErrInvalidQuantity
	}
	if item.Price.LessThan(decimal.Zero) {
		return model.CartLine{}, model.NewDomainError(model.ErrCodeValidation, "Catalog item has a negative price")
	}

	return model.CartLine{
		ProductRef:   ref,
		DisplayName:  name,
		ImageRef:     item.ImageRef,
		UnitPrice:    item.Price,
		RequestedQty: qty,
	}, nil
}
