// internal/application/usecase/order_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	orderdom "sodistore/internal/domain/order"
)

var (
	ErrOrderInvalidArgument = errors.New("order_usecase: invalid argument")
	ErrOrderForbidden       = errors.New("order_usecase: order not owned by account")
)

// OrderUsecase is the buyer-facing read surface over orders.
// Order creation happens only inside the checkout orchestration.
type OrderUsecase struct {
	repo orderdom.Repository
}

func NewOrderUsecase(repo orderdom.Repository) *OrderUsecase {
	return &OrderUsecase{repo: repo}
}

// Get returns one order, enforcing ownership.
func (u *OrderUsecase) Get(ctx context.Context, accountID, orderID string) (orderdom.Order, error) {
	aid := strings.TrimSpace(accountID)
	oid := strings.TrimSpace(orderID)
	if aid == "" || oid == "" {
		return orderdom.Order{}, ErrOrderInvalidArgument
	}

	o, err := u.repo.GetByID(ctx, oid)
	if err != nil {
		return orderdom.Order{}, err
	}
	if o.AccountID != aid {
		return orderdom.Order{}, ErrOrderForbidden
	}
	return o, nil
}

// ListMine returns the account's orders, newest first.
func (u *OrderUsecase) ListMine(ctx context.Context, accountID string, page, perPage int) ([]orderdom.Order, int, error) {
	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return nil, 0, ErrOrderInvalidArgument
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 10
	}
	return u.repo.ListByAccountID(ctx, aid, page, perPage)
}
