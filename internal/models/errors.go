package models

import "errors"

// Domain errors. Callers compare with errors.Is; services wrap them with
// the offending id for context.
var (
	// Ledger
	ErrUnknownWallet    = errors.New("unknown or inactive wallet")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrDuplicatePosting = errors.New("source already posted to ledger")
	ErrBalanceDrift     = errors.New("wallet balance does not match ledger entries")

	// Costs and recurrence
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrAlreadySettled    = errors.New("cost already settled")

	// Receipts
	ErrAmbiguousCustomer = errors.New("receipt needs exactly one of client or customer contact")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTotalMismatch     = errors.New("total_amount and legacy total diverge")

	// Generic
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflicting record")
)
