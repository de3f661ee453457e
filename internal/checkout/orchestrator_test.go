package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"petkart/internal/loyalty"
	"petkart/internal/model"
)

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateDraft(ctx context.Context, draft *model.OrderDraft) (uuid.UUID, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOrderRepository) GetByRef(ctx context.Context, ref uuid.UUID) (*model.OrderDraft, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDraft), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, ref uuid.UUID) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func fullLine(ref string, price int64, qty int) model.LineVerdict {
	return model.LineVerdict{
		ProductRef:     ref,
		Verdict:        model.VerdictFull,
		RequestedQty:   qty,
		FulfillableQty: qty,
		UnitPrice:      decimal.NewFromInt(price),
		Payable:        decimal.NewFromInt(price * int64(qty)),
	}
}

func reportOf(lines ...model.LineVerdict) model.ReconciliationReport {
	report := model.ReconciliationReport{AdjustedSubtotal: decimal.Zero, Lines: lines}
	for _, l := range lines {
		report.AdjustedSubtotal = report.AdjustedSubtotal.Add(l.Payable)
	}
	return report
}

func validSubmitRequest() *SubmitRequest {
	return &SubmitRequest{
		Report:                reportOf(fullLine("dog-chow", 100, 3)),
		PointsRedeemed:        0,
		Billing:               validAddress(),
		ShippingSameAsBilling: true,
		PaymentMethod:         "card",
		ContactEmail:          "jamie@example.com",
	}
}

func newTestOrchestrator(orders *MockOrderRepository) *Orchestrator {
	engine := loyalty.NewEngine(decimal.NewFromInt(10))
	return NewOrchestrator(orders, engine, decimal.NewFromInt(300), zerolog.Nop())
}

func TestOrchestrator_BuildDraft_Totals(t *testing.T) {
	tests := []struct {
		name             string
		report           model.ReconciliationReport
		points           int
		expectedSubtotal int64
		expectedDiscount int64
		expectedTotal    int64
	}{
		{
			name:             "No redemption",
			report:           reportOf(fullLine("dog-chow", 100, 3)),
			points:           0,
			expectedSubtotal: 300,
			expectedDiscount: 0,
			expectedTotal:    600,
		},
		{
			name:             "Redemption below base",
			report:           reportOf(fullLine("dog-chow", 100, 3)),
			points:           20,
			expectedSubtotal: 300,
			expectedDiscount: 200,
			expectedTotal:    400,
		},
		{
			name:             "Discount covers part of the delivery fee",
			report:           reportOf(fullLine("dog-chow", 100, 3)),
			points:           35,
			expectedSubtotal: 300,
			expectedDiscount: 350,
			expectedTotal:    250,
		},
		{
			name:             "Discount capped at subtotal plus fee",
			report:           reportOf(fullLine("bird-seed", 50, 1)),
			points:           100,
			expectedSubtotal: 50,
			expectedDiscount: 350,
			expectedTotal:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orchestrator := newTestOrchestrator(new(MockOrderRepository))

			req := validSubmitRequest()
			req.Report = tt.report
			req.PointsRedeemed = tt.points

			draft, err := orchestrator.BuildDraft(req)
			require.NoError(t, err)

			assert.True(t, decimal.NewFromInt(tt.expectedSubtotal).Equal(draft.Subtotal))
			assert.True(t, decimal.NewFromInt(300).Equal(draft.DeliveryFee))
			assert.True(t, decimal.NewFromInt(tt.expectedDiscount).Equal(draft.Discount),
				"expected discount %d, got %s", tt.expectedDiscount, draft.Discount)
			assert.True(t, decimal.NewFromInt(tt.expectedTotal).Equal(draft.Total),
				"expected total %d, got %s", tt.expectedTotal, draft.Total)
			assert.Equal(t, model.OrderSubmitted, draft.Status)
		})
	}
}

func TestOrchestrator_BuildDraft_EmptyCart(t *testing.T) {
	orchestrator := newTestOrchestrator(new(MockOrderRepository))

	req := validSubmitRequest()
	req.Report = model.ReconciliationReport{AdjustedSubtotal: decimal.Zero}

	draft, err := orchestrator.BuildDraft(req)
	assert.Nil(t, draft)
	assert.ErrorIs(t, err, model.ErrEmptyCart)
}

func TestOrchestrator_BuildDraft_ValidationCollectsAllFields(t *testing.T) {
	orchestrator := newTestOrchestrator(new(MockOrderRepository))

	req := validSubmitRequest()
	req.Billing.Phone = "12345"
	req.ContactEmail = "not-an-email"
	req.PaymentMethod = "  "
	req.PointsRedeemed = 7

	draft, err := orchestrator.BuildDraft(req)
	assert.Nil(t, draft)

	var errs model.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 4)
	assert.Contains(t, errs, "billing.phone")
	assert.Contains(t, errs, "contactEmail")
	assert.Contains(t, errs, "paymentMethod")
	assert.Contains(t, errs, "pointsRedeemed")
}

func TestOrchestrator_BuildDraft_NegativePoints(t *testing.T) {
	orchestrator := newTestOrchestrator(new(MockOrderRepository))

	req := validSubmitRequest()
	req.PointsRedeemed = -5

	_, err := orchestrator.BuildDraft(req)

	var errs model.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "pointsRedeemed")
}

func TestOrchestrator_BuildDraft_ShippingSameAsBilling(t *testing.T) {
	orchestrator := newTestOrchestrator(new(MockOrderRepository))

	// The shipping block is garbage but derived by copy, so it is
	// neither validated nor used.
	req := validSubmitRequest()
	req.ShippingSameAsBilling = true
	req.Shipping = model.Address{FirstName: "###", Phone: "x"}

	draft, err := orchestrator.BuildDraft(req)
	require.NoError(t, err)
	assert.Equal(t, req.Billing, draft.Shipping)
}

func TestOrchestrator_BuildDraft_SeparateShippingValidated(t *testing.T) {
	orchestrator := newTestOrchestrator(new(MockOrderRepository))

	req := validSubmitRequest()
	req.ShippingSameAsBilling = false
	req.Shipping = validAddress()
	req.Shipping.PostalCode = "bad"

	_, err := orchestrator.BuildDraft(req)

	var errs model.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "shipping.postalCode")
}

func TestOrchestrator_BuildDraft_DropsUnfulfillableLines(t *testing.T) {
	orchestrator := newTestOrchestrator(new(MockOrderRepository))

	noneLine := model.LineVerdict{
		ProductRef:   "ghost",
		Verdict:      model.VerdictNone,
		RequestedQty: 2,
		UnitPrice:    decimal.NewFromInt(500),
		Payable:      decimal.Zero,
	}

	req := validSubmitRequest()
	req.Report = reportOf(fullLine("dog-chow", 100, 3), noneLine)

	draft, err := orchestrator.BuildDraft(req)
	require.NoError(t, err)

	require.Len(t, draft.Lines, 1)
	assert.Equal(t, "dog-chow", draft.Lines[0].ProductRef)
	assert.Equal(t, 3, draft.Lines[0].Quantity)
}

func TestOrchestrator_BuildDraft_NothingFulfillable(t *testing.T) {
	orchestrator := newTestOrchestrator(new(MockOrderRepository))

	noneLine := model.LineVerdict{
		ProductRef:   "ghost",
		Verdict:      model.VerdictNone,
		RequestedQty: 2,
		UnitPrice:    decimal.NewFromInt(500),
		Payable:      decimal.Zero,
	}

	req := validSubmitRequest()
	req.Report = reportOf(noneLine)

	draft, err := orchestrator.BuildDraft(req)
	assert.Nil(t, draft)

	var domainErr *model.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodeStockConflict, domainErr.Code)
}

func TestOrchestrator_Submit(t *testing.T) {
	orders := new(MockOrderRepository)
	ref := uuid.New()
	orders.On("CreateDraft", mock.Anything, mock.AnythingOfType("*model.OrderDraft")).Return(ref, nil)

	orchestrator := newTestOrchestrator(orders)

	draft, err := orchestrator.Submit(context.Background(), validSubmitRequest())
	require.NoError(t, err)
	assert.Equal(t, ref, draft.Ref)

	orders.AssertExpectations(t)
}

func TestOrchestrator_Submit_ValidationFailureNeverPersists(t *testing.T) {
	orders := new(MockOrderRepository)
	orchestrator := newTestOrchestrator(orders)

	req := validSubmitRequest()
	req.ContactEmail = "nope"

	draft, err := orchestrator.Submit(context.Background(), req)
	assert.Nil(t, draft)
	require.Error(t, err)

	orders.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything)
}

func TestOrchestrator_Submit_PersistFailure(t *testing.T) {
	orders := new(MockOrderRepository)
	orders.On("CreateDraft", mock.Anything, mock.Anything).Return(uuid.Nil, errors.New("db down"))

	orchestrator := newTestOrchestrator(orders)

	draft, err := orchestrator.Submit(context.Background(), validSubmitRequest())
	assert.Nil(t, draft)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist order draft")
}
