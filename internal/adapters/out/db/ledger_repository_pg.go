// internal/adapters/out/db/ledger_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	dbcommon "sodistore/internal/adapters/out/db/common"
	ledgerdom "sodistore/internal/domain/ledger"
)

// LedgerRepositoryPG implements ledger.Service on Postgres.
//
// Schema:
//
//	CREATE TABLE ledger_accounts (
//	  account_id         TEXT PRIMARY KEY,
//	  commission_balance BIGINT NOT NULL DEFAULT 0 CHECK (commission_balance >= 0),
//	  wallet_balance     BIGINT NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
//	  updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE ledger_entries (
//	  id         BIGSERIAL PRIMARY KEY,
//	  account_id TEXT NOT NULL REFERENCES ledger_accounts(account_id),
//	  source     TEXT NOT NULL,
//	  amount     BIGINT NOT NULL,
//	  order_id   TEXT NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// Debits are a single conditional UPDATE: the WHERE clause carries the
// balance check, so two concurrent checkouts can never overdraw even
// though the caller read the balances earlier without a lock.
type LedgerRepositoryPG struct {
	DB *sql.DB
}

func NewLedgerRepositoryPG(db *sql.DB) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{DB: db}
}

func (r *LedgerRepositoryPG) GetBalances(ctx context.Context, accountID string) (ledgerdom.Balances, error) {
	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return ledgerdom.Balances{}, ledgerdom.ErrNotFound
	}

	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
SELECT account_id, commission_balance, wallet_balance
FROM ledger_accounts
WHERE account_id = $1`
	var b ledgerdom.Balances
	err := run.QueryRowContext(ctx, q, aid).Scan(&b.AccountID, &b.CommissionBalance, &b.WalletBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledgerdom.Balances{}, ledgerdom.ErrNotFound
		}
		return ledgerdom.Balances{}, err
	}
	return b, nil
}

func (r *LedgerRepositoryPG) DebitCommission(ctx context.Context, accountID string, amount int, orderID string) error {
	return r.debit(ctx, accountID, amount, orderID, ledgerdom.SourceCommission)
}

func (r *LedgerRepositoryPG) DebitWallet(ctx context.Context, accountID string, amount int, orderID string) error {
	return r.debit(ctx, accountID, amount, orderID, ledgerdom.SourceWallet)
}

// debit moves the FULL amount from one balance and records a ledger
// entry in the same transaction. RowsAffected 0 means the balance did
// not cover the amount (or the account does not exist).
func (r *LedgerRepositoryPG) debit(ctx context.Context, accountID string, amount int, orderID string, source ledgerdom.Source) error {
	aid := strings.TrimSpace(accountID)
	oid := strings.TrimSpace(orderID)
	if aid == "" || oid == "" {
		return ledgerdom.ErrNotFound
	}
	if amount <= 0 {
		return ledgerdom.ErrInvalidAmount
	}

	col := "wallet_balance"
	if source == ledgerdom.SourceCommission {
		col = "commission_balance"
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// conditional full-amount debit
	res, err := tx.ExecContext(ctx, `
UPDATE ledger_accounts
SET `+col+` = `+col+` - $1, updated_at = now()
WHERE account_id = $2 AND `+col+` >= $1`, amount, aid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledgerdom.ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO ledger_entries (account_id, source, amount, order_id)
VALUES ($1, $2, $3, $4)`, aid, string(source), -amount, oid); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("[ledger_repository_pg] debited account=%s source=%s amount=%d order=%s", aid, source, amount, oid)
	return nil
}
