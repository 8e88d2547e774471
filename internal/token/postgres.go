package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger moves funds between account rows in a single transaction.
type PostgresLedger struct {
	db   *pgxpool.Pool
	pool string // pool account ID this ledger is bound to
}

func NewPostgresLedger(db *pgxpool.Pool, poolAccount string) *PostgresLedger {
	return &PostgresLedger{db: db, pool: poolAccount}
}

func (l *PostgresLedger) TransferIn(ctx context.Context, from string, amount int64) error {
	return l.move(ctx, from, l.pool, amount, ErrInsufficientFunds)
}

func (l *PostgresLedger) TransferOut(ctx context.Context, to string, amount int64) error {
	return l.move(ctx, l.pool, to, amount, ErrInsufficientReserve)
}

func (l *PostgresLedger) BalanceOf(ctx context.Context, account string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, "SELECT balance FROM accounts WHERE id = $1", account).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// move debits `from` and credits `to` atomically. Rows are locked in lexical
// ID order to prevent deadlocks between concurrent transfers.
func (l *PostgresLedger) move(ctx context.Context, from, to string, amount int64, shortfall error) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := from, to
	if first > second {
		first, second = second, first
	}

	balances := map[string]int64{}
	for _, id := range []string{first, second} {
		var balance int64
		err := tx.QueryRow(ctx, "SELECT balance FROM accounts WHERE id = $1 FOR UPDATE", id).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock acquisition failed: %w", err)
		}
		balances[id] = balance
	}

	if balances[from] < amount {
		return shortfall
	}

	if _, err := tx.Exec(ctx, "UPDATE accounts SET balance = balance - $1 WHERE id = $2", amount, from); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE accounts SET balance = balance + $1 WHERE id = $2", amount, to); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}
