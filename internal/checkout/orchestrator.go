// Package checkout assembles reconciled cart state, delivery fee and
// loyalty discount into an order draft and guards submission with
// field-level validation.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"petkart/internal/loyalty"
	"petkart/internal/model"
	"petkart/internal/repository"
)

// SubmitRequest carries everything the orchestrator needs to build and
// persist an order draft. Report must come from the most recent
// reconciliation pass; the raw cart subtotal is never accepted here.
type SubmitRequest struct {
	Report                model.ReconciliationReport
	PointsRedeemed        int
	Billing               model.Address
	Shipping              model.Address
	ShippingSameAsBilling bool
	PaymentMethod         string
	ContactEmail          string
}

// Orchestrator validates submissions and builds order drafts.
type Orchestrator struct {
	orders      repository.OrderRepository
	engine      *loyalty.Engine
	deliveryFee decimal.Decimal
	logger      zerolog.Logger
}

// NewOrchestrator creates a checkout orchestrator. deliveryFee is the
// flat per-order rate.
func NewOrchestrator(orders repository.OrderRepository, engine *loyalty.Engine, deliveryFee decimal.Decimal, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		orders:      orders,
		engine:      engine,
		deliveryFee: deliveryFee,
		logger:      logger.With().Str("component", "checkout").Logger(),
	}
}

// BuildDraft validates the request and assembles an order draft without
// persisting it. On validation failure it returns model.ValidationErrors
// carrying every offending field, and no draft.
func (o *Orchestrator) BuildDraft(req *SubmitRequest) (*model.OrderDraft, error) {
	if len(req.Report.Lines) == 0 {
		return nil, model.ErrEmptyCart
	}

	shipping := req.Shipping
	if req.ShippingSameAsBilling {
		// Derived by copy; not independently validated.
		shipping = req.Billing
	}

	errs := make(model.ValidationErrors)
	ValidateAddress("billing", req.Billing, errs)
	if !req.ShippingSameAsBilling {
		ValidateAddress("shipping", req.Shipping, errs)
	}
	ValidateEmail("contactEmail", req.ContactEmail, errs)

	if strings.TrimSpace(req.PaymentMethod) == "" {
		errs.Add("paymentMethod", "must not be empty")
	}

	if req.PointsRedeemed < 0 {
		errs.Add("pointsRedeemed", "must not be negative")
	} else if req.PointsRedeemed%5 != 0 {
		errs.Add("pointsRedeemed", "must be a multiple of 5")
	}

	if len(errs) > 0 {
		o.logger.Warn().Int("field_count", len(errs)).Msg("checkout submission failed validation")
		return nil, errs
	}

	subtotal := req.Report.AdjustedSubtotal
	base := subtotal.Add(o.deliveryFee)
	discount := o.engine.Discount(req.PointsRedeemed, base)

	total := base.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	lines := make([]model.OrderLine, 0, len(req.Report.Lines))
	for _, v := range req.Report.Lines {
		if v.FulfillableQty == 0 {
			continue
		}
		lines = append(lines, model.OrderLine{
			ProductRef: v.ProductRef,
			Quantity:   v.FulfillableQty,
			UnitPrice:  v.UnitPrice,
		})
	}
	if len(lines) == 0 {
		return nil, model.NewDomainError(model.ErrCodeStockConflict, "No line item can be fulfilled")
	}

	return &model.OrderDraft{
		Lines:          lines,
		Subtotal:       subtotal,
		DeliveryFee:    o.deliveryFee,
		PointsRedeemed: req.PointsRedeemed,
		Discount:       discount,
		Total:          total,
		Billing:        req.Billing,
		Shipping:       shipping,
		PaymentMethod:  req.PaymentMethod,
		ContactEmail:   req.ContactEmail,
		Status:         model.OrderSubmitted,
	}, nil
}

// Submit builds the draft and persists it, returning the order ref.
// Validation failures never reach the repository.
func (o *Orchestrator) Submit(ctx context.Context, req *SubmitRequest) (*model.OrderDraft, error) {
	draft, err := o.BuildDraft(req)
	if err != nil {
		return nil, err
	}

	ref, err := o.orders.CreateDraft(ctx, draft)
	if err != nil {
		o.logger.Error().Err(err).Msg("failed to persist order draft")
		return nil, fmt.Errorf("failed to persist order draft: %w", err)
	}
	draft.Ref = ref

	o.logger.Info().
		Str("order_ref", ref.String()).
		Str("total", draft.Total.String()).
		Int("points_redeemed", draft.PointsRedeemed).
		Msg("order draft submitted")

	return draft, nil
}

// DeliveryFee exposes the flat rate so callers can present the payable
// base before submission.
func (o *Orchestrator) DeliveryFee() decimal.Decimal {
	return o.deliveryFee
}
