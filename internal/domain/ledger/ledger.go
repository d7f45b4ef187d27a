// internal/domain/ledger/ledger.go
package ledger

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("ledger: account not found")
	ErrInvalidAmount     = errors.New("ledger: invalid amount")
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
)

// Balances are the two internal balances usable as a settlement source.
// Amounts are whole currency units (XOF), never negative.
type Balances struct {
	AccountID         string
	CommissionBalance int
	WalletBalance     int
}

// Source identifies which balance a debit came from.
type Source string

const (
	SourceCommission Source = "commission"
	SourceWallet     Source = "wallet"
)

// Service is the settlement-side port over the ledger.
//
// Debits are full-amount and conditional: the implementation MUST apply
// the debit atomically only when the balance covers the amount, and
// return ErrInsufficientFunds otherwise. Concurrent debits against one
// account are serialized by the implementation (single-writer /
// conditional update), not by callers.
type Service interface {
	// GetBalances returns current balances for the account.
	// MUST return ErrNotFound for an unknown account.
	GetBalances(ctx context.Context, accountID string) (Balances, error)

	// DebitCommission debits amount from the commission balance.
	// orderID is recorded as the debit reference.
	DebitCommission(ctx context.Context, accountID string, amount int, orderID string) error

	// DebitWallet debits amount from the wallet balance.
	DebitWallet(ctx context.Context, accountID string, amount int, orderID string) error
}
