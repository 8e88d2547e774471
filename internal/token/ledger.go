package token

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientReserve = errors.New("insufficient reserve")
)

// Ledger is the fungible-token collaborator. Each instance is bound to one
// pool account; TransferIn pulls from a payer into the pool, TransferOut pays
// out of it. Amounts are base token units.
type Ledger interface {
	TransferIn(ctx context.Context, from string, amount int64) error
	TransferOut(ctx context.Context, to string, amount int64) error
	BalanceOf(ctx context.Context, account string) (int64, error)
}
