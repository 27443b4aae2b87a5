package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/recurrence"
	"pos-backend/internal/repositories"

	"golang.org/x/sync/errgroup"
)

// EntityFailure is one entity the sweep could not process
type EntityFailure struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Step  string `json:"step"`
	Error string `json:"error"`
}

// SweepReport summarizes one Tick. Work listed here is committed even when
// the sweep was cut short.
type SweepReport struct {
	AsOf              time.Time       `json:"as_of"`
	Overdue           []string        `json:"overdue"`
	GeneratedBookings []string        `json:"generated_bookings"`
	GeneratedCosts    []string        `json:"generated_costs"`
	Posted            []string        `json:"posted"`
	Failures          []EntityFailure `json:"failures"`
	Cancelled         bool            `json:"cancelled"`

	mu sync.Mutex
}

func (r *SweepReport) fail(kind, id, step string, err error) {
	log.Printf("[Sweep] %s %s failed at %s: %v", kind, id, step, err)
	metrics.SweepFailures.WithLabelValues(kind).Inc()
	r.mu.Lock()
	r.Failures = append(r.Failures, EntityFailure{Kind: kind, ID: id, Step: step, Error: err.Error()})
	r.mu.Unlock()
}

func (r *SweepReport) add(list *[]string, ids ...string) {
	r.mu.Lock()
	*list = append(*list, ids...)
	r.mu.Unlock()
}

func (r *SweepReport) sortLists() {
	for _, l := range [][]string{r.Overdue, r.GeneratedBookings, r.GeneratedCosts, r.Posted} {
		sort.Strings(l)
	}
	sort.Slice(r.Failures, func(i, j int) bool {
		if r.Failures[i].Kind != r.Failures[j].Kind {
			return r.Failures[i].Kind < r.Failures[j].Kind
		}
		return r.Failures[i].ID < r.Failures[j].ID
	})
}

// Coordinator drives the flows that cross components: completing a receipt
// into the ledger and the periodic sweep.
type Coordinator struct {
	Store      repositories.Store
	Receipts   *ReceiptService
	Costs      *CostService
	Recurrence *RecurrenceService
	Workers    int
}

func NewCoordinator(store repositories.Store, receipts *ReceiptService, costs *CostService, rec *RecurrenceService, workers int) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{Store: store, Receipts: receipts, Costs: costs, Recurrence: rec, Workers: workers}
}

// CompleteReceipt transitions the receipt and posts it to the ledger in one
// storage transaction.
func (c *Coordinator) CompleteReceipt(ctx context.Context, receiptID string) (string, error) {
	return c.Receipts.Complete(ctx, receiptID)
}

// Tick runs one reconciliation sweep as of asOf: overdue costs first, then
// expansion of every recurring root, then settlement of the cost occurrences
// just generated. A failing entity is recorded and skipped. Cancelling ctx
// stops the sweep between entities.
func (c *Coordinator) Tick(ctx context.Context, asOf time.Time) *SweepReport {
	start := time.Now()
	metrics.SweepRuns.Inc()
	report := &SweepReport{AsOf: asOf}
	defer func() {
		report.sortLists()
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	overdue, err := c.Costs.sweepOverdue(ctx, asOf, func(id string, err error) {
		report.fail("cost", id, "overdue", err)
	})
	report.add(&report.Overdue, overdue...)
	metrics.SweepCostsOverdue.Add(float64(len(overdue)))
	if err != nil {
		report.Cancelled = ctx.Err() != nil
		if !report.Cancelled {
			report.fail("sweep", "costs", "overdue", err)
		}
		return report
	}

	costRoots, err := c.Store.Costs().List(ctx, models.CostFilter{RecurringRoot: true})
	if err != nil {
		report.fail("sweep", "costs", "list", err)
	}
	bookingRoots, err := c.Store.Bookings().ListRecurringRoots(ctx)
	if err != nil {
		report.fail("sweep", "bookings", "list", err)
	}

	var g errgroup.Group
	g.SetLimit(c.Workers)

	for i := range costRoots {
		root := costRoots[i]
		if ctx.Err() != nil {
			break
		}
		if finished(recurrence.ForCost(&root)) {
			continue
		}
		g.Go(func() error {
			c.expandAndSettleCost(ctx, root.ID, asOf, report)
			return nil
		})
	}
	for i := range bookingRoots {
		root := bookingRoots[i]
		if ctx.Err() != nil {
			break
		}
		if finished(recurrence.ForBooking(&root)) {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			created, err := c.Recurrence.ExpandBooking(ctx, root.ID, asOf)
			if err != nil {
				report.fail("booking", root.ID, "expand", err)
				return nil
			}
			report.add(&report.GeneratedBookings, ids(created, func(b models.Booking) string { return b.ID })...)
			return nil
		})
	}
	_ = g.Wait()

	report.Cancelled = ctx.Err() != nil
	log.Printf("[Sweep] as of %s: overdue=%d bookings=%d costs=%d posted=%d failures=%d cancelled=%t",
		asOf.Format(time.RFC3339), len(report.Overdue), len(report.GeneratedBookings),
		len(report.GeneratedCosts), len(report.Posted), len(report.Failures), report.Cancelled)
	return report
}

func (c *Coordinator) expandAndSettleCost(ctx context.Context, rootID string, asOf time.Time, report *SweepReport) {
	if ctx.Err() != nil {
		return
	}
	created, err := c.Recurrence.ExpandCost(ctx, rootID, asOf)
	if err != nil {
		report.fail("cost", rootID, "expand", err)
		return
	}
	report.add(&report.GeneratedCosts, ids(created, func(c models.Cost) string { return c.ID })...)

	for _, occ := range created {
		if ctx.Err() != nil {
			return
		}
		entryID, err := c.Costs.MarkPaid(ctx, occ.ID)
		if err != nil {
			report.fail("cost", occ.ID, "post", err)
			continue
		}
		report.add(&report.Posted, entryID)
	}
}

// finished reports whether a valid root has no occurrence left. Invalid
// roots are still expanded so the failure lands in the report.
func finished(s recurrence.Schedule, err error) bool {
	return err == nil && s.Finished()
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}
