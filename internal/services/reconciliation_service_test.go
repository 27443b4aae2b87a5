package services

import (
	"context"
	"testing"
	"time"

	"pos-backend/internal/locks"
	"pos-backend/internal/models"
)

func TestTick_SweepsExpandsAndPosts(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()
	w := e.wallet(t, "client-1", true)

	rootID := recurringCost(t, e, "client-1", day(2024, 1, 31), models.PatternMonthly, ptr(day(2024, 4, 30)))
	booking := recurringBooking(t, e, day(2024, 3, 25), models.PatternWeekly)

	asOf := day(2024, 4, 15)
	report := e.coordinator.Tick(ctx, asOf)

	if len(report.Failures) != 0 {
		t.Fatalf("Tick() failures = %+v", report.Failures)
	}
	if len(report.Overdue) != 1 || report.Overdue[0] != rootID {
		t.Errorf("Overdue = %v, want the root cost", report.Overdue)
	}
	if len(report.GeneratedCosts) != 2 || len(report.Posted) != 2 {
		t.Errorf("GeneratedCosts = %v, Posted = %v; want 2 each", report.GeneratedCosts, report.Posted)
	}
	// 04-01, 04-08, 04-15
	if len(report.GeneratedBookings) != 3 {
		t.Errorf("GeneratedBookings = %v, want 3", report.GeneratedBookings)
	}
	if got := e.balance(t, w.ID); !got.Equal(dec("-20")) {
		t.Errorf("balance = %s, want -20", got)
	}
	if err := e.ledger.VerifyBalance(ctx, w.ID); err != nil {
		t.Errorf("VerifyBalance() error: %v", err)
	}

	again := e.coordinator.Tick(ctx, asOf)
	if n := len(again.Overdue) + len(again.GeneratedCosts) + len(again.GeneratedBookings) + len(again.Posted); n != 0 {
		t.Errorf("second Tick() changed %d things: %+v", n, again)
	}

	children, _ := e.bookings.Occurrences(ctx, booking.ID)
	if len(children) != 3 {
		t.Errorf("booking occurrences = %d, want 3", len(children))
	}
}

func TestTick_CollectsFailuresAndContinues(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()

	// No wallet for this client: occurrences are generated but cannot post.
	recurringCost(t, e, "walletless", day(2024, 3, 1), models.PatternWeekly, nil)
	booking := recurringBooking(t, e, day(2024, 4, 1), models.PatternWeekly)

	report := e.coordinator.Tick(ctx, day(2024, 4, 15))
	if len(report.GeneratedCosts) == 0 {
		t.Fatal("no cost occurrences generated")
	}
	if len(report.Failures) != len(report.GeneratedCosts) {
		t.Errorf("Failures = %d, want one per generated cost (%d)", len(report.Failures), len(report.GeneratedCosts))
	}
	for _, f := range report.Failures {
		if f.Kind != "cost" || f.Step != "post" {
			t.Errorf("failure = %+v", f)
		}
	}
	if len(report.Posted) != 0 {
		t.Errorf("Posted = %v, want none", report.Posted)
	}

	children, _ := e.bookings.Occurrences(ctx, booking.ID)
	if len(children) != 2 {
		t.Errorf("booking occurrences = %d, want 2", len(children))
	}
}

func TestTick_CancelledContextStopsBetweenEntities(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	e.wallet(t, "client-1", true)
	overdue := newCost("client-1", "10")
	overdue.DueDate = day(2024, 1, 1)
	id, err := e.costs.RecordCost(context.Background(), overdue)
	if err != nil {
		t.Fatal(err)
	}
	recurringBooking(t, e, day(2024, 1, 1), models.PatternWeekly)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := e.coordinator.Tick(ctx, day(2024, 4, 15))

	if !report.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	if len(report.Overdue)+len(report.GeneratedBookings) != 0 {
		t.Errorf("cancelled sweep did work: %+v", report)
	}
	c, _ := e.costs.GetCost(context.Background(), id)
	if c.Status != models.CostPending {
		t.Errorf("status = %s, want pending", c.Status)
	}
}

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	e.wallet(t, "client-1", true)
	recurringBooking(t, e, day(2024, 4, 1), models.PatternWeekly)

	s := NewScheduler(e.coordinator, e.clock, time.Hour, locks.NewLocal())
	s.Start()
	deadline := time.Now().Add(2 * time.Second)
	for s.LastReport() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	report := s.LastReport()
	if report == nil {
		t.Fatal("LastReport() = nil, the first sweep never ran")
	}
	if len(report.GeneratedBookings) != 2 {
		t.Errorf("GeneratedBookings = %v, want 2", report.GeneratedBookings)
	}
	if !report.AsOf.Equal(e.clock.Now()) {
		t.Errorf("AsOf = %s, want clock time %s", report.AsOf, e.clock.Now())
	}
}

func TestScheduler_SkipsWhenSweepLockHeld(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	locker := locks.NewLocal()
	unlock, err := locker.Lock(context.Background(), sweepLockKey)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	s := NewScheduler(e.coordinator, e.clock, 20*time.Millisecond, locker)
	if report := s.RunOnce(context.Background()); report != nil {
		t.Errorf("RunOnce() = %+v, want nil while another sweep holds the lock", report)
	}
}
