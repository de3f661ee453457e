package repository

import (
	"context"

	"github.com/google/uuid"

	"petkart/internal/model"
)

// Finalization conflicts. These are terminal for the checkout flow and
// must never be retried blindly.
var (
	ErrAlreadyPaid   = model.NewDomainError(model.ErrCodeAlreadyPaid, "Order is already paid")
	ErrOrderNotFound = model.NewDomainError(model.ErrCodeOrderNotFound, "Order not found")
)

// ProductRepository is the read-only catalog access the cart ingress
// needs to snapshot prices. Catalog mutation is out of scope.
type ProductRepository interface {
	// GetByRef retrieves a single catalog item by its product reference.
	GetByRef(ctx context.Context, ref string) (*model.CatalogItem, error)

	// GetByRefs retrieves multiple catalog items by reference.
	GetByRefs(ctx context.Context, refs []string) ([]model.CatalogItem, error)
}

// OrderRepository persists order drafts and owns the paid transition.
type OrderRepository interface {
	// CreateDraft persists a submitted order draft with its lines and
	// returns the order reference.
	CreateDraft(ctx context.Context, draft *model.OrderDraft) (uuid.UUID, error)

	// GetByRef retrieves an order with its lines.
	GetByRef(ctx context.Context, ref uuid.UUID) (*model.OrderDraft, error)

	// MarkPaid transitions an order to paid. Returns ErrAlreadyPaid if
	// the order was already paid and ErrOrderNotFound if it does not
	// exist.
	MarkPaid(ctx context.Context, ref uuid.UUID) error
}
