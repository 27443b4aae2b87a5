package repositories

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the production Store backed by a pgx pool
type PostgresStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

func (s *PostgresStore) Wallets() WalletRepository   { return NewWalletRepository(s.Pool) }
func (s *PostgresStore) Ledger() LedgerRepository    { return NewLedgerRepository(s.Pool) }
func (s *PostgresStore) Costs() CostRepository       { return NewCostRepository(s.Pool) }
func (s *PostgresStore) Receipts() ReceiptRepository { return NewReceiptRepository(s.Pool) }
func (s *PostgresStore) Bookings() BookingRepository { return NewBookingRepository(s.Pool) }

// WithTx runs fn in a READ COMMITTED transaction. Row locks taken through
// GetForUpdate are held until commit or rollback.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Repos) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(txRepos{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapPgError(err))
	}
	return nil
}

type txRepos struct {
	tx pgx.Tx
}

func (r txRepos) Wallets() WalletRepository   { return NewWalletRepository(r.tx) }
func (r txRepos) Ledger() LedgerRepository    { return NewLedgerRepository(r.tx) }
func (r txRepos) Costs() CostRepository       { return NewCostRepository(r.tx) }
func (r txRepos) Receipts() ReceiptRepository { return NewReceiptRepository(r.tx) }
func (r txRepos) Bookings() BookingRepository { return NewBookingRepository(r.tx) }

const (
	pgUniqueViolation = "23505"
	ledgerSourceIndex = "ledger_entries_source_key"
)

// mapPgError turns constraint violations into domain errors.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == ledgerSourceIndex {
			return fmt.Errorf("%s: %w", pgErr.Detail, models.ErrDuplicatePosting)
		}
		return fmt.Errorf("%s: %w", pgErr.Detail, models.ErrConflict)
	}
	return err
}

func notFound(err error, what string, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, models.ErrNotFound)
	}
	return err
}

// Numeric columns travel as text so no precision is lost on the way.
func parseNumeric(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
