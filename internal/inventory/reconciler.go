package inventory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"petkart/internal/metrics"
	"petkart/internal/model"
)

// Reconciler produces availability verdicts and the adjusted payable
// subtotal for a cart. Passes are keyed on a monotonically increasing
// token; a late-arriving result from a superseded pass is discarded so
// checkout always reads the most recent one.
type Reconciler struct {
	lookup  Lookup
	metrics *metrics.Metrics
	logger  zerolog.Logger

	seq    atomic.Uint64
	mu     sync.Mutex
	latest *model.ReconciliationReport
}

// NewReconciler creates a stock reconciler backed by the given lookup.
func NewReconciler(lookup Lookup, m *metrics.Metrics, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		lookup:  lookup,
		metrics: m,
		logger:  logger.With().Str("component", "stock-reconciler").Logger(),
	}
}

// Reconcile runs one pass over the cart lines. Per-line fetches run
// concurrently and independently: a failure on one line defaults that
// line to a None verdict without aborting the others. An empty cart
// yields an empty report with no fetches issued.
func (r *Reconciler) Reconcile(ctx context.Context, lines []model.CartLine) model.ReconciliationReport {
	token := r.seq.Add(1)

	report := model.ReconciliationReport{
		Token:            token,
		AdjustedSubtotal: decimal.Zero,
	}

	if len(lines) == 0 {
		r.publish(report)
		return report
	}

	type lineResult struct {
		index    int
		snapshot *model.InventorySnapshot
		err      error
	}

	resultChan := make(chan lineResult, len(lines))
	var wg sync.WaitGroup

	for i, line := range lines {
		wg.Add(1)
		go func(index int, productRef string) {
			defer wg.Done()

			snapshot, err := r.lookup.GetProduct(ctx, productRef)
			resultChan <- lineResult{index: index, snapshot: snapshot, err: err}
		}(i, line.ProductRef)
	}

	wg.Wait()
	close(resultChan)

	snapshots := make([]*model.InventorySnapshot, len(lines))
	errs := make([]error, len(lines))
	for result := range resultChan {
		snapshots[result.index] = result.snapshot
		errs[result.index] = result.err
	}

	report.Lines = make([]model.LineVerdict, len(lines))
	for i, line := range lines {
		verdict := r.judge(line, snapshots[i], errs[i])
		report.Lines[i] = verdict
		report.AdjustedSubtotal = report.AdjustedSubtotal.Add(verdict.Payable)

		if r.metrics != nil {
			r.metrics.ReconcileVerdicts.WithLabelValues(string(verdict.Verdict)).Inc()
		}
	}

	if r.metrics != nil {
		r.metrics.ReconcilePasses.Inc()
	}

	r.logger.Debug().
		Uint64("token", token).
		Int("line_count", len(lines)).
		Str("adjusted_subtotal", report.AdjustedSubtotal.String()).
		Msg("reconciliation pass completed")

	r.publish(report)
	return report
}

// judge derives the availability verdict for a single line. Any fetch
// failure is treated as zero confirmed stock: the customer is never
// charged for units the inventory service did not confirm.
func (r *Reconciler) judge(line model.CartLine, snapshot *model.InventorySnapshot, err error) model.LineVerdict {
	verdict := model.LineVerdict{
		ProductRef:   line.ProductRef,
		RequestedQty: line.RequestedQty,
		UnitPrice:    line.UnitPrice,
		Payable:      decimal.Zero,
	}

	if err != nil || snapshot == nil || snapshot.Status != model.ProductActive || snapshot.AvailableQty == 0 {
		if err != nil && err != ErrProductNotFound {
			r.logger.Warn().
				Err(err).
				Str("product_ref", line.ProductRef).
				Msg("line defaulted to unavailable after fetch failure")
		}
		verdict.Verdict = model.VerdictNone
		return verdict
	}

	if snapshot.AvailableQty >= line.RequestedQty {
		verdict.Verdict = model.VerdictFull
		verdict.FulfillableQty = line.RequestedQty
	} else {
		verdict.Verdict = model.VerdictPartial
		verdict.FulfillableQty = snapshot.AvailableQty
	}

	verdict.Payable = line.UnitPrice.Mul(decimal.NewFromInt(int64(verdict.FulfillableQty)))
	return verdict
}

// publish stores the report as the latest pass unless a newer pass has
// already published, in which case the stale result is dropped.
func (r *Reconciler) publish(report model.ReconciliationReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest != nil && r.latest.Token >= report.Token {
		r.logger.Debug().
			Uint64("token", report.Token).
			Uint64("latest", r.latest.Token).
			Msg("discarding stale reconciliation result")
		return
	}
	r.latest = &report
}

// Latest returns the most recently published report. The boolean is
// false until the first pass has completed.
func (r *Reconciler) Latest() (model.ReconciliationReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest == nil {
		return model.ReconciliationReport{}, false
	}
	return *r.latest, true
}
