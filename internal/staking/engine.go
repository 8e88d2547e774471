package staking

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/punchamoorthee/stakeops/internal/auth"
	"github.com/punchamoorthee/stakeops/internal/clock"
	"github.com/punchamoorthee/stakeops/internal/events"
	"github.com/punchamoorthee/stakeops/internal/token"
)

// Stake is one deposit record. Append-only: a stake is never deleted, only
// marked withdrawn, so every account keeps an auditable history.
type Stake struct {
	Amount             int64     `json:"amount"`
	Timestamp          time.Time `json:"timestamp"`
	PackageName        string    `json:"package"`
	WithdrawnTimestamp time.Time `json:"withdrawn_timestamp,omitzero"`
}

// Open reports whether the stake has not been withdrawn yet.
func (s Stake) Open() bool { return s.WithdrawnTimestamp.IsZero() }

// Engine owns per-account stakes and authorizes withdrawals. All fund
// movement is delegated to the Ledger; the engine only keeps the accounting.
// Every operation runs as one critical section, so no caller ever observes a
// partially applied transition.
type Engine struct {
	catalog  *Catalog
	ledger   token.Ledger
	clock    clock.Clock
	roles    auth.RoleChecker
	notifier events.Notifier

	mu                 sync.Mutex
	stakes             map[string][]Stake
	totalStakedBalance map[string]int64
	totalStakedFunds   int64
	hasStaked          map[string]bool
	paused             bool
}

func NewEngine(catalog *Catalog, ledger token.Ledger, clk clock.Clock, roles auth.RoleChecker, notifier events.Notifier) *Engine {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Engine{
		catalog:            catalog,
		ledger:             ledger,
		clock:              clk,
		roles:              roles,
		notifier:           notifier,
		stakes:             map[string][]Stake{},
		totalStakedBalance: map[string]int64{},
		hasStaked:          map[string]bool{},
	}
}

// Stake pulls amount from caller into the pool and records a new stake.
// Returns the index of the new stake within the caller's history.
func (e *Engine) Stake(ctx context.Context, caller string, amount int64, packageName string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrStakingPaused
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if _, err := e.catalog.Get(packageName); err != nil {
		return 0, err
	}

	if err := e.ledger.TransferIn(ctx, caller, amount); err != nil {
		return 0, errors.Wrap(err, "pull stake principal")
	}

	index := len(e.stakes[caller])
	e.stakes[caller] = append(e.stakes[caller], Stake{
		Amount:      amount,
		Timestamp:   e.clock.Now(),
		PackageName: packageName,
	})
	e.totalStakedBalance[caller] += amount
	e.totalStakedFunds += amount
	e.hasStaked[caller] = true

	e.notifier.StakeAdded(caller, packageName, amount, index)
	return index, nil
}

// Withdraw pays out principal plus interest for a matured stake and closes
// it. Interest is amount * interestPercent / 100, truncated toward zero; the
// truncation remainder stays in the reserve.
func (e *Engine) Withdraw(ctx context.Context, caller string, index int) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stakes := e.stakes[caller]
	if index < 0 || index >= len(stakes) {
		return 0, ErrStakeNotFound
	}
	stake := stakes[index]
	if !stake.Open() {
		return 0, ErrStakeAlreadyWithdrawn
	}

	pkg, err := e.catalog.Get(stake.PackageName)
	if err != nil {
		return 0, err
	}

	now := e.clock.Now()
	maturity := stake.Timestamp.Add(time.Duration(pkg.LockDays) * 24 * time.Hour)
	if now.Before(maturity) {
		return 0, ErrStakeLocked
	}

	interest := stake.Amount * pkg.InterestPercent / 100
	paid := stake.Amount + interest
	if err := e.ledger.TransferOut(ctx, caller, paid); err != nil {
		return 0, errors.Wrap(err, "pay out stake")
	}

	e.stakes[caller][index].WithdrawnTimestamp = now
	e.totalStakedBalance[caller] -= stake.Amount
	e.totalStakedFunds -= stake.Amount

	e.notifier.StakeWithdrawn(caller, index, paid)
	return paid, nil
}

// FundReserve tops up the pool account that interest is paid from.
// Restricted to the reward provider role.
func (e *Engine) FundReserve(ctx context.Context, caller string, amount int64) error {
	if !e.roles.HasRewardProviderRole(caller) {
		return ErrUnauthorized
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return errors.Wrap(e.ledger.TransferIn(ctx, caller, amount), "fund reserve")
}

// Pause stops new stakes. Withdrawals are unaffected: pause only gates
// inflow.
func (e *Engine) Pause(caller string) error {
	return e.setPaused(caller, true)
}

func (e *Engine) Unpause(caller string) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller string, paused bool) error {
	if !e.roles.HasAdminRole(caller) {
		return ErrUnauthorized
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = paused
	return nil
}

//
// Query surface
//

func (e *Engine) Package(name string) (Package, error) {
	return e.catalog.Get(name)
}

func (e *Engine) TotalStakedFunds() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalStakedFunds
}

func (e *Engine) TotalStakedBalance(account string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalStakedBalance[account]
}

func (e *Engine) HasStaked(account string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasStaked[account]
}

func (e *Engine) StakeAt(account string, index int) (Stake, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	stakes := e.stakes[account]
	if index < 0 || index >= len(stakes) {
		return Stake{}, ErrStakeNotFound
	}
	return stakes[index], nil
}

// Stakes returns a copy of the account's full stake history.
func (e *Engine) Stakes(account string) []Stake {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Stake, len(e.stakes[account]))
	copy(out, e.stakes[account])
	return out
}

func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}
