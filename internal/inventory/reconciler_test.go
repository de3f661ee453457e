package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petkart/internal/metrics"
	"petkart/internal/model"
)

// fakeLookup serves canned snapshots keyed by product reference and
// counts fetches. Reconciliation issues fetches concurrently, so access
// is guarded by a mutex.
type fakeLookup struct {
	mu        sync.Mutex
	snapshots map[string]*model.InventorySnapshot
	errs      map[string]error
	calls     int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		snapshots: make(map[string]*model.InventorySnapshot),
		errs:      make(map[string]error),
	}
}

func (f *fakeLookup) stock(ref string, qty int) *fakeLookup {
	f.snapshots[ref] = &model.InventorySnapshot{
		ProductRef:   ref,
		AvailableQty: qty,
		Status:       model.ProductActive,
	}
	return f
}

func (f *fakeLookup) inactive(ref string, qty int) *fakeLookup {
	f.snapshots[ref] = &model.InventorySnapshot{
		ProductRef:   ref,
		AvailableQty: qty,
		Status:       model.ProductInactive,
	}
	return f
}

func (f *fakeLookup) failing(ref string, err error) *fakeLookup {
	f.errs[ref] = err
	return f
}

func (f *fakeLookup) GetProduct(_ context.Context, productRef string) (*model.InventorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if err, ok := f.errs[productRef]; ok {
		return nil, err
	}
	if snapshot, ok := f.snapshots[productRef]; ok {
		return snapshot, nil
	}
	return nil, ErrProductNotFound
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func cartLine(ref string, price int64, qty int) model.CartLine {
	return model.CartLine{
		ProductRef:   ref,
		UnitPrice:    decimal.NewFromInt(price),
		RequestedQty: qty,
	}
}

func TestReconciler_Reconcile_Verdicts(t *testing.T) {
	tests := []struct {
		name             string
		lookup           *fakeLookup
		lines            []model.CartLine
		expectedVerdicts []model.Verdict
		expectedFulfill  []int
		expectedSubtotal int64
		expectedClean    bool
	}{
		{
			name:             "All lines fully available",
			lookup:           newFakeLookup().stock("dog-chow", 10).stock("cat-litter", 4),
			lines:            []model.CartLine{cartLine("dog-chow", 100, 2), cartLine("cat-litter", 250, 1)},
			expectedVerdicts: []model.Verdict{model.VerdictFull, model.VerdictFull},
			expectedFulfill:  []int{2, 1},
			expectedSubtotal: 450,
			expectedClean:    true,
		},
		{
			name:             "Partial line prorated to available units",
			lookup:           newFakeLookup().stock("dog-chow", 3),
			lines:            []model.CartLine{cartLine("dog-chow", 100, 5)},
			expectedVerdicts: []model.Verdict{model.VerdictPartial},
			expectedFulfill:  []int{3},
			expectedSubtotal: 300,
			expectedClean:    false,
		},
		{
			name:             "Zero stock",
			lookup:           newFakeLookup().stock("dog-chow", 0),
			lines:            []model.CartLine{cartLine("dog-chow", 100, 2)},
			expectedVerdicts: []model.Verdict{model.VerdictNone},
			expectedFulfill:  []int{0},
			expectedSubtotal: 0,
			expectedClean:    false,
		},
		{
			name:             "Inactive product counts as unavailable",
			lookup:           newFakeLookup().inactive("dog-chow", 10),
			lines:            []model.CartLine{cartLine("dog-chow", 100, 2)},
			expectedVerdicts: []model.Verdict{model.VerdictNone},
			expectedFulfill:  []int{0},
			expectedSubtotal: 0,
			expectedClean:    false,
		},
		{
			name:             "Unknown product",
			lookup:           newFakeLookup(),
			lines:            []model.CartLine{cartLine("ghost", 100, 2)},
			expectedVerdicts: []model.Verdict{model.VerdictNone},
			expectedFulfill:  []int{0},
			expectedSubtotal: 0,
			expectedClean:    false,
		},
		{
			name: "Fetch failure on one line does not abort the others",
			lookup: newFakeLookup().
				stock("dog-chow", 10).
				failing("cat-litter", errors.New("inventory unreachable")),
			lines:            []model.CartLine{cartLine("dog-chow", 100, 2), cartLine("cat-litter", 250, 1)},
			expectedVerdicts: []model.Verdict{model.VerdictFull, model.VerdictNone},
			expectedFulfill:  []int{2, 0},
			expectedSubtotal: 200,
			expectedClean:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reconciler := NewReconciler(tt.lookup, metrics.New(), zerolog.Nop())

			report := reconciler.Reconcile(context.Background(), tt.lines)

			require.Len(t, report.Lines, len(tt.lines))
			for i, verdict := range tt.expectedVerdicts {
				assert.Equal(t, verdict, report.Lines[i].Verdict, "line %d verdict", i)
				assert.Equal(t, tt.expectedFulfill[i], report.Lines[i].FulfillableQty, "line %d fulfillable", i)
			}
			assert.True(t, decimal.NewFromInt(tt.expectedSubtotal).Equal(report.AdjustedSubtotal),
				"expected adjusted subtotal %d, got %s", tt.expectedSubtotal, report.AdjustedSubtotal)
			assert.Equal(t, tt.expectedClean, report.Clean())
		})
	}
}

func TestReconciler_Reconcile_AdjustedNeverExceedsRaw(t *testing.T) {
	lookup := newFakeLookup().stock("dog-chow", 3).stock("cat-litter", 100).stock("bird-seed", 0)
	lines := []model.CartLine{
		cartLine("dog-chow", 100, 5),
		cartLine("cat-litter", 250, 2),
		cartLine("bird-seed", 50, 4),
	}

	reconciler := NewReconciler(lookup, metrics.New(), zerolog.Nop())
	report := reconciler.Reconcile(context.Background(), lines)

	raw := decimal.Zero
	for _, l := range lines {
		raw = raw.Add(l.LineTotal())
	}

	assert.True(t, report.AdjustedSubtotal.LessThanOrEqual(raw))
	// 3x100 + 2x250 + 0
	assert.True(t, decimal.NewFromInt(800).Equal(report.AdjustedSubtotal))
}

func TestReconciler_Reconcile_EmptyCart(t *testing.T) {
	lookup := newFakeLookup()
	reconciler := NewReconciler(lookup, metrics.New(), zerolog.Nop())

	report := reconciler.Reconcile(context.Background(), nil)

	assert.Empty(t, report.Lines)
	assert.True(t, report.AdjustedSubtotal.IsZero())
	assert.Equal(t, 0, lookup.callCount(), "empty cart must not hit the inventory service")

	// The empty pass still publishes
	latest, ok := reconciler.Latest()
	require.True(t, ok)
	assert.Empty(t, latest.Lines)
}

func TestReconciler_Reconcile_Idempotent(t *testing.T) {
	lookup := newFakeLookup().stock("dog-chow", 3)
	lines := []model.CartLine{cartLine("dog-chow", 100, 5)}

	reconciler := NewReconciler(lookup, metrics.New(), zerolog.Nop())

	first := reconciler.Reconcile(context.Background(), lines)
	second := reconciler.Reconcile(context.Background(), lines)

	assert.Equal(t, first.Lines, second.Lines)
	assert.True(t, first.AdjustedSubtotal.Equal(second.AdjustedSubtotal))
	assert.Greater(t, second.Token, first.Token)
}

func TestReconciler_Latest(t *testing.T) {
	lookup := newFakeLookup().stock("dog-chow", 10)
	reconciler := NewReconciler(lookup, metrics.New(), zerolog.Nop())

	_, ok := reconciler.Latest()
	assert.False(t, ok, "no report before the first pass")

	report := reconciler.Reconcile(context.Background(), []model.CartLine{cartLine("dog-chow", 100, 2)})

	latest, ok := reconciler.Latest()
	require.True(t, ok)
	assert.Equal(t, report.Token, latest.Token)
	assert.True(t, report.AdjustedSubtotal.Equal(latest.AdjustedSubtotal))
}

func TestReconciler_PublishDiscardsStaleResult(t *testing.T) {
	lookup := newFakeLookup().stock("dog-chow", 10)
	reconciler := NewReconciler(lookup, metrics.New(), zerolog.Nop())

	newer := reconciler.Reconcile(context.Background(), []model.CartLine{cartLine("dog-chow", 100, 2)})

	// A result from a pass that started earlier but finished later
	stale := model.ReconciliationReport{
		Token:            newer.Token - 1,
		AdjustedSubtotal: decimal.NewFromInt(9999),
	}
	reconciler.publish(stale)

	latest, ok := reconciler.Latest()
	require.True(t, ok)
	assert.Equal(t, newer.Token, latest.Token)
	assert.True(t, newer.AdjustedSubtotal.Equal(latest.AdjustedSubtotal))
}

func TestLineVerdict_Shortfall(t *testing.T) {
	lookup := newFakeLookup().stock("dog-chow", 3)
	reconciler := NewReconciler(lookup, metrics.New(), zerolog.Nop())

	report := reconciler.Reconcile(context.Background(), []model.CartLine{cartLine("dog-chow", 100, 5)})

	require.Len(t, report.Lines, 1)
	assert.Equal(t, 2, report.Lines[0].Shortfall())
}
