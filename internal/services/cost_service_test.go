package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pos-backend/internal/models"
)

func newCost(clientID, amount string) *models.Cost {
	return &models.Cost{
		ClientID: clientID,
		Title:    "Electricity",
		Amount:   models.MustMoney(amount, "INR"),
		DueDate:  day(2024, 4, 1),
	}
}

func TestRecordCost_Validation(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(c *models.Cost)
		want   error
	}{
		{"plain", func(c *models.Cost) {}, nil},
		{"recurring without pattern", func(c *models.Cost) { c.IsRecurring = true }, models.ErrInvalidRecurrence},
		{"pattern on non-recurring", func(c *models.Cost) { c.Pattern = models.PatternMonthly }, models.ErrInvalidRecurrence},
		{"unknown pattern", func(c *models.Cost) {
			c.IsRecurring = true
			c.Pattern = "yearly"
		}, models.ErrInvalidRecurrence},
		{"end before due", func(c *models.Cost) {
			c.IsRecurring = true
			c.Pattern = models.PatternWeekly
			c.EndDate = ptr(day(2024, 3, 1))
		}, models.ErrInvalidRecurrence},
		{"generated occurrence", func(c *models.Cost) { c.ParentCostID = ptr("root") }, models.ErrInvalidRecurrence},
		{"zero amount", func(c *models.Cost) { c.Amount = models.MustMoney("0", "INR") }, models.ErrInvalidInput},
		{"unknown wallet", func(c *models.Cost) { c.WalletID = "nope" }, models.ErrUnknownWallet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCost("client-1", "40")
			tt.mutate(c)
			id, err := e.costs.RecordCost(ctx, c)
			if !errors.Is(err, tt.want) {
				t.Fatalf("RecordCost() error = %v, want %v", err, tt.want)
			}
			if err != nil {
				return
			}
			stored, err := e.costs.GetCost(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if stored.Status != models.CostPending {
				t.Errorf("status = %s, want pending", stored.Status)
			}
		})
	}
}

func TestCreateCost_ParsesRequest(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	c, err := e.costs.CreateCost(context.Background(), &models.CreateCostRequest{
		ClientID:          "client-1",
		Title:             "Rent",
		Amount:            "1200.50",
		DueDate:           "2024-01-31",
		IsRecurring:       true,
		RecurringPattern:  "monthly",
		RecurrenceEndDate: "2024-12-31",
	})
	if err != nil {
		t.Fatalf("CreateCost() error: %v", err)
	}
	if !c.Amount.Amount.Equal(dec("1200.5")) || c.Amount.Currency != "INR" {
		t.Errorf("amount = %s", c.Amount)
	}
	if c.Pattern != models.PatternMonthly || c.EndDate == nil {
		t.Errorf("recurrence = %+v", c.Recurrence)
	}

	_, err = e.costs.CreateCost(context.Background(), &models.CreateCostRequest{
		ClientID: "client-1", Title: "Rent", Amount: "abc", DueDate: "2024-01-31",
	})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("CreateCost(bad amount) error = %v, want ErrInvalidInput", err)
	}
}

func TestMarkPaid(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()
	w := e.wallet(t, "client-1", true)

	id, err := e.costs.RecordCost(ctx, newCost("client-1", "40"))
	if err != nil {
		t.Fatal(err)
	}

	entryID, err := e.costs.MarkPaid(ctx, id)
	if err != nil {
		t.Fatalf("MarkPaid() error: %v", err)
	}
	if got := e.balance(t, w.ID); !got.Equal(dec("-40")) {
		t.Errorf("balance = %s, want -40", got)
	}

	c, _ := e.costs.GetCost(ctx, id)
	if c.Status != models.CostPaid || c.LedgerEntryID != entryID || c.PaidAt == nil {
		t.Errorf("cost after MarkPaid = %+v", c)
	}

	if _, err := e.costs.MarkPaid(ctx, id); !errors.Is(err, models.ErrAlreadySettled) {
		t.Errorf("second MarkPaid() error = %v, want ErrAlreadySettled", err)
	}
	if n := len(e.entries(t, w.ID)); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
}

func TestMarkPaid_ConcurrentCallersOneWins(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()
	w := e.wallet(t, "client-1", true)
	id, err := e.costs.RecordCost(ctx, newCost("client-1", "25"))
	if err != nil {
		t.Fatal(err)
	}

	const callers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.costs.MarkPaid(ctx, id)
			switch {
			case err == nil:
				mu.Lock()
				wins++
				mu.Unlock()
			case !errors.Is(err, models.ErrAlreadySettled):
				t.Errorf("MarkPaid() error = %v, want ErrAlreadySettled", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("successful MarkPaid calls = %d, want 1", wins)
	}
	if n := len(e.entries(t, w.ID)); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
	if got := e.balance(t, w.ID); !got.Equal(dec("-25")) {
		t.Errorf("balance = %s, want -25", got)
	}
}

func TestMarkPaid_DesignatedWallet(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()
	def := e.wallet(t, "client-1", true)
	petty := e.wallet(t, "client-1", false)

	c := newCost("client-1", "15")
	c.WalletID = petty.ID
	id, err := e.costs.RecordCost(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.costs.MarkPaid(ctx, id); err != nil {
		t.Fatalf("MarkPaid() error: %v", err)
	}
	if got := e.balance(t, petty.ID); !got.Equal(dec("-15")) {
		t.Errorf("designated wallet balance = %s, want -15", got)
	}
	if got := e.balance(t, def.ID); !got.IsZero() {
		t.Errorf("default wallet balance = %s, want 0", got)
	}
}

func TestMarkPaid_NoWalletLeavesCostUnsettled(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()

	id, err := e.costs.RecordCost(ctx, newCost("walletless", "10"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.costs.MarkPaid(ctx, id); !errors.Is(err, models.ErrUnknownWallet) {
		t.Fatalf("MarkPaid() error = %v, want ErrUnknownWallet", err)
	}
	c, _ := e.costs.GetCost(ctx, id)
	if c.Status != models.CostPending {
		t.Errorf("status = %s, want pending", c.Status)
	}
}

func TestSweepOverdue(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()
	e.wallet(t, "client-1", true)

	past := newCost("client-1", "10")
	past.DueDate = day(2024, 4, 10)
	onDay := newCost("client-1", "10")
	onDay.DueDate = day(2024, 4, 15)
	paid := newCost("client-1", "10")
	paid.DueDate = day(2024, 4, 1)

	pastID, _ := e.costs.RecordCost(ctx, past)
	onDayID, _ := e.costs.RecordCost(ctx, onDay)
	paidID, _ := e.costs.RecordCost(ctx, paid)
	if _, err := e.costs.MarkPaid(ctx, paidID); err != nil {
		t.Fatal(err)
	}

	asOf := day(2024, 4, 15)
	changed, err := e.costs.SweepOverdue(ctx, asOf)
	if err != nil {
		t.Fatalf("SweepOverdue() error: %v", err)
	}
	if len(changed) != 1 || changed[0] != pastID {
		t.Errorf("SweepOverdue() = %v, want [%s]", changed, pastID)
	}

	again, err := e.costs.SweepOverdue(ctx, asOf)
	if err != nil || len(again) != 0 {
		t.Errorf("second SweepOverdue() = %v, %v; want nothing", again, err)
	}

	// Later on the due day itself nothing more turns overdue.
	midday, err := e.costs.SweepOverdue(ctx, asOf.Add(13*time.Hour))
	if err != nil || len(midday) != 0 {
		t.Errorf("SweepOverdue(due day, 13:00) = %v, %v; want nothing", midday, err)
	}

	for id, want := range map[string]models.CostStatus{pastID: models.CostOverdue, onDayID: models.CostPending, paidID: models.CostPaid} {
		c, _ := e.costs.GetCost(ctx, id)
		if c.Status != want {
			t.Errorf("cost %s status = %s, want %s", id, c.Status, want)
		}
	}

	if _, err := e.costs.MarkPaid(ctx, pastID); err != nil {
		t.Errorf("MarkPaid(overdue) error: %v", err)
	}
}

func TestCorrectStatus(t *testing.T) {
	e := newEngine(t, LedgerConfig{})
	ctx := context.Background()

	id, _ := e.costs.RecordCost(ctx, newCost("client-1", "10"))
	if _, err := e.costs.CorrectStatus(ctx, id, models.CostPending); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("CorrectStatus(pending->pending) error = %v, want ErrInvalidTransition", err)
	}

	if _, err := e.costs.SweepOverdue(ctx, day(2024, 5, 1)); err != nil {
		t.Fatal(err)
	}
	c, err := e.costs.CorrectStatus(ctx, id, models.CostPending)
	if err != nil {
		t.Fatalf("CorrectStatus(overdue->pending) error: %v", err)
	}
	if c.Status != models.CostPending {
		t.Errorf("status = %s, want pending", c.Status)
	}

	if _, err := e.costs.CorrectStatus(ctx, id, models.CostPaid); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("CorrectStatus(->paid) error = %v, want ErrInvalidTransition", err)
	}
}
