// internal/application/usecase/ledger_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	ledgerdom "sodistore/internal/domain/ledger"
)

var ErrLedgerInvalidArgument = errors.New("ledger_usecase: invalid argument")

// LedgerUsecase is the buyer-facing read surface over ledger balances.
// Debits happen only inside the checkout orchestration.
type LedgerUsecase struct {
	svc ledgerdom.Service
}

func NewLedgerUsecase(svc ledgerdom.Service) *LedgerUsecase {
	return &LedgerUsecase{svc: svc}
}

// Balances returns the commission and wallet balances for the account.
// An unknown account reads as zero balances.
func (u *LedgerUsecase) Balances(ctx context.Context, accountID string) (ledgerdom.Balances, error) {
	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return ledgerdom.Balances{}, ErrLedgerInvalidArgument
	}

	b, err := u.svc.GetBalances(ctx, aid)
	if err != nil {
		if errors.Is(err, ledgerdom.ErrNotFound) {
			return ledgerdom.Balances{AccountID: aid}, nil
		}
		return ledgerdom.Balances{}, err
	}
	return b, nil
}
