package vesting

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/punchamoorthee/stakeops/internal/clock"
	"github.com/punchamoorthee/stakeops/internal/events"
	"github.com/punchamoorthee/stakeops/internal/token"
)

// Config describes one beneficiary's release schedule.
type Config struct {
	Owner         string
	Beneficiary   string
	PoolAccount   string
	Start         time.Time
	Duration      time.Duration
	ReleasesCount int64
	Revocable     bool
}

// Engine releases a pre-funded token allocation to a single beneficiary in
// equal periodic tranches. The allocation is whatever the schedule's pool
// account holds: it is reread on every computation, so deposits made any time
// before full vesting raise the amount vested per remaining period.
type Engine struct {
	cfg      Config
	ledger   token.Ledger
	clock    clock.Clock
	notifier events.Notifier

	mu        sync.Mutex
	released  int64
	revoked   bool
	revokedAt time.Time
}

func NewEngine(cfg Config, ledger token.Ledger, clk clock.Clock, notifier events.Notifier) (*Engine, error) {
	if cfg.Beneficiary == "" || cfg.Owner == "" {
		return nil, errors.Wrap(ErrInvalidConfig, "owner and beneficiary required")
	}
	if cfg.Duration <= 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "duration must be positive")
	}
	if cfg.ReleasesCount <= 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "releases count must be positive")
	}
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Engine{cfg: cfg, ledger: ledger, clock: clk, notifier: notifier}, nil
}

// Available returns the amount currently claimable by the beneficiary.
func (e *Engine) Available(ctx context.Context) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available(ctx)
}

// available must be called with the lock held.
//
// Once revoked the pool holds exactly the vested-but-unclaimed remainder, so
// the claimable amount is the pool balance itself and stops growing with
// time. The same reconciliation applies once every period has elapsed, which
// absorbs any per-period truncation drift: the cumulative total released
// always lands exactly on the amount allocated.
func (e *Engine) available(ctx context.Context) (int64, error) {
	balance, err := e.ledger.BalanceOf(ctx, e.cfg.PoolAccount)
	if err != nil {
		return 0, errors.Wrap(err, "read schedule balance")
	}

	if e.revoked {
		return balance, nil
	}

	now := e.clock.Now()
	if now.Before(e.cfg.Start) {
		return 0, nil
	}

	elapsedPeriods := int64(now.Sub(e.cfg.Start) / e.cfg.Duration)
	if elapsedPeriods >= e.cfg.ReleasesCount {
		return balance, nil
	}

	totalAllocated := balance + e.released
	vested := totalAllocated * elapsedPeriods / e.cfg.ReleasesCount
	if vested < e.released {
		return 0, nil
	}
	return vested - e.released, nil
}

// Release transfers everything currently claimable to the beneficiary.
func (e *Engine) Release(ctx context.Context, caller string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.cfg.Beneficiary {
		return 0, ErrUnauthorized
	}
	due, err := e.available(ctx)
	if err != nil {
		return 0, err
	}
	if due <= 0 {
		return 0, ErrNothingDue
	}

	if err := e.ledger.TransferOut(ctx, e.cfg.Beneficiary, due); err != nil {
		return 0, errors.Wrap(err, "release vested tokens")
	}
	e.released += due

	e.notifier.Released(e.cfg.Beneficiary, due)
	return due, nil
}

// Revoke halts future accrual and refunds the unvested remainder to refundTo.
// The already-vested-but-unclaimed amount stays in the pool; the beneficiary
// keeps the right to release it afterwards.
func (e *Engine) Revoke(ctx context.Context, caller, refundTo string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.cfg.Owner {
		return 0, ErrUnauthorized
	}
	if !e.cfg.Revocable {
		return 0, ErrNotRevocable
	}
	if e.revoked {
		return 0, ErrAlreadyRevoked
	}

	balance, err := e.ledger.BalanceOf(ctx, e.cfg.PoolAccount)
	if err != nil {
		return 0, errors.Wrap(err, "read schedule balance")
	}
	owed, err := e.available(ctx)
	if err != nil {
		return 0, err
	}

	refund := balance - owed
	if refund > 0 {
		if err := e.ledger.TransferOut(ctx, refundTo, refund); err != nil {
			return 0, errors.Wrap(err, "refund unvested tokens")
		}
	}
	e.revoked = true
	e.revokedAt = e.clock.Now()

	e.notifier.Revoked(e.cfg.Owner, refundTo, refund)
	return refund, nil
}

//
// Query surface
//

func (e *Engine) Owner() string       { return e.cfg.Owner }
func (e *Engine) Beneficiary() string { return e.cfg.Beneficiary }
func (e *Engine) Start() time.Time    { return e.cfg.Start }

// Finish is the instant the last release period ends.
func (e *Engine) Finish() time.Time {
	return e.cfg.Start.Add(e.cfg.Duration * time.Duration(e.cfg.ReleasesCount))
}

func (e *Engine) Duration() time.Duration { return e.cfg.Duration }
func (e *Engine) ReleasesCount() int64    { return e.cfg.ReleasesCount }
func (e *Engine) Revocable() bool         { return e.cfg.Revocable }

func (e *Engine) Released() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.released
}

func (e *Engine) Revoked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revoked
}

// RevokedAt is zero while the schedule is active.
func (e *Engine) RevokedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revokedAt
}
