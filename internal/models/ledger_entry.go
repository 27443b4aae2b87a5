package models

import (
	"fmt"
	"time"
)

// SourceKind says which business record produced a ledger entry
type SourceKind string

const (
	SourceCost    SourceKind = "cost"
	SourceReceipt SourceKind = "receipt"
)

func (k SourceKind) Valid() bool {
	return k == SourceCost || k == SourceReceipt
}

// SourceRef identifies the cost or receipt behind an entry. A source is
// posted at most once across the whole ledger.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

func CostSource(id string) SourceRef    { return SourceRef{Kind: SourceCost, ID: id} }
func ReceiptSource(id string) SourceRef { return SourceRef{Kind: SourceReceipt, ID: id} }

func (s SourceRef) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

// LedgerEntry is an immutable signed amount posted against a wallet.
// Positive amounts credit the wallet (sales), negative amounts debit it (costs).
type LedgerEntry struct {
	ID          string    `json:"id"`
	WalletID    string    `json:"wallet_id"`
	Amount      Money     `json:"amount"`
	Source      SourceRef `json:"source"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatementLine is an entry with the balance after it, oldest first
type StatementLine struct {
	LedgerEntry
	RunningBalance Money `json:"running_balance"`
}

// BuildStatement computes running balances over entries in posting order.
func BuildStatement(currency string, entries []LedgerEntry) ([]StatementLine, error) {
	running := Zero(currency)
	lines := make([]StatementLine, 0, len(entries))
	for _, e := range entries {
		next, err := running.Add(e.Amount)
		if err != nil {
			return nil, err
		}
		running = next
		lines = append(lines, StatementLine{LedgerEntry: e, RunningBalance: running})
	}
	return lines, nil
}
