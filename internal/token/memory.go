package token

import (
	"context"
	"sync"
)

// MemoryLedger is a map-backed Ledger with the same semantics as the postgres
// implementation. Used in tests and single-process deployments.
type MemoryLedger struct {
	mu       sync.Mutex
	pool     string
	balances map[string]int64
}

func NewMemoryLedger(poolAccount string) *MemoryLedger {
	return &MemoryLedger{
		pool:     poolAccount,
		balances: map[string]int64{poolAccount: 0},
	}
}

// Credit funds an account directly, bypassing transfer checks. Test and
// seeding hook; not part of the Ledger interface.
func (l *MemoryLedger) Credit(account string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *MemoryLedger) TransferIn(_ context.Context, from string, amount int64) error {
	return l.move(from, l.pool, amount, ErrInsufficientFunds)
}

func (l *MemoryLedger) TransferOut(_ context.Context, to string, amount int64) error {
	return l.move(l.pool, to, amount, ErrInsufficientReserve)
}

func (l *MemoryLedger) BalanceOf(_ context.Context, account string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[account]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *MemoryLedger) move(from, to string, amount int64, shortfall error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromBalance, ok := l.balances[from]
	if !ok {
		return ErrAccountNotFound
	}
	if _, ok := l.balances[to]; !ok {
		l.balances[to] = 0
	}
	if fromBalance < amount {
		return shortfall
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
