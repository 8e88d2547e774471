package staking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/stakeops/internal/auth"
	"github.com/punchamoorthee/stakeops/internal/clock"
	"github.com/punchamoorthee/stakeops/internal/token"
)

const poolAccount = "staking-pool"

func newTestEngine(t *testing.T) (*Engine, *token.MemoryLedger, *clock.Manual) {
	t.Helper()
	ledger := token.NewMemoryLedger(poolAccount)
	ledger.Credit("alice", 1_000_000)
	ledger.Credit("bob", 1_000_000)
	ledger.Credit("provider", 1_000_000)

	clk := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	roles := auth.NewStaticRoles().
		Grant("admin", auth.RoleAdmin).
		Grant("provider", auth.RoleRewardProvider)

	return NewEngine(DefaultCatalog(), ledger, clk, roles, nil), ledger, clk
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestStakeValidations(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Stake(ctx, "alice", 0, Silver)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = engine.Stake(ctx, "alice", -10, Silver)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = engine.Stake(ctx, "alice", 100, "bronze")
	assert.ErrorIs(t, err, ErrUnknownPackage)

	require.NoError(t, engine.Pause("admin"))
	_, err = engine.Stake(ctx, "alice", 100, Silver)
	assert.ErrorIs(t, err, ErrStakingPaused)

	require.NoError(t, engine.Unpause("admin"))
	_, err = engine.Stake(ctx, "alice", 100, Silver)
	assert.NoError(t, err)
}

func TestStakeRejectsWithoutFunds(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Stake(context.Background(), "alice", 2_000_000, Gold)
	assert.ErrorIs(t, err, token.ErrInsufficientFunds)

	// failed pull leaves no accounting behind
	assert.EqualValues(t, 0, engine.TotalStakedFunds())
	assert.False(t, engine.HasStaked("alice"))
}

func TestStakeAccounting(t *testing.T) {
	engine, ledger, _ := newTestEngine(t)
	ctx := context.Background()

	assert.False(t, engine.HasStaked("alice"))
	assert.EqualValues(t, 0, engine.TotalStakedBalance("alice"))

	index, err := engine.Stake(ctx, "alice", 10_000, Silver)
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	index, err = engine.Stake(ctx, "alice", 5_000, Gold)
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	index, err = engine.Stake(ctx, "alice", 15_000, Platinum)
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	_, err = engine.Stake(ctx, "bob", 50_000, Gold)
	require.NoError(t, err)

	assert.EqualValues(t, 30_000, engine.TotalStakedBalance("alice"))
	assert.EqualValues(t, 50_000, engine.TotalStakedBalance("bob"))
	assert.EqualValues(t, 80_000, engine.TotalStakedFunds())
	assert.True(t, engine.HasStaked("alice"))
	assert.True(t, engine.HasStaked("bob"))

	poolBalance, err := ledger.BalanceOf(ctx, poolAccount)
	require.NoError(t, err)
	assert.EqualValues(t, 80_000, poolBalance)

	stake, err := engine.StakeAt("alice", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 5_000, stake.Amount)
	assert.Equal(t, Gold, stake.PackageName)
	assert.True(t, stake.Open())

	_, err = engine.StakeAt("alice", 3)
	assert.ErrorIs(t, err, ErrStakeNotFound)
}

func TestWithdrawLifecycle(t *testing.T) {
	engine, ledger, clk := newTestEngine(t)
	ctx := context.Background()

	// silver: 7 days lock, 8% interest
	_, err := engine.Stake(ctx, "alice", 10_000, Silver)
	require.NoError(t, err)
	require.NoError(t, engine.FundReserve(ctx, "provider", 10_000))

	_, err = engine.Withdraw(ctx, "alice", 0)
	assert.ErrorIs(t, err, ErrStakeLocked)

	clk.Advance(days(6))
	_, err = engine.Withdraw(ctx, "alice", 0)
	assert.ErrorIs(t, err, ErrStakeLocked)

	clk.Advance(days(1))
	paid, err := engine.Withdraw(ctx, "alice", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 10_800, paid)

	assert.EqualValues(t, 0, engine.TotalStakedBalance("alice"))
	assert.EqualValues(t, 0, engine.TotalStakedFunds())
	assert.True(t, engine.HasStaked("alice"), "hasStaked never resets")

	stake, err := engine.StakeAt("alice", 0)
	require.NoError(t, err)
	assert.False(t, stake.Open())
	assert.Equal(t, clk.Now(), stake.WithdrawnTimestamp)

	balance, err := ledger.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_800, balance)

	_, err = engine.Withdraw(ctx, "alice", 0)
	assert.ErrorIs(t, err, ErrStakeAlreadyWithdrawn)
}

func TestWithdrawInterestTruncates(t *testing.T) {
	engine, _, clk := newTestEngine(t)
	ctx := context.Background()

	// 15% of 33 truncates to 4
	_, err := engine.Stake(ctx, "alice", 33, Platinum)
	require.NoError(t, err)
	require.NoError(t, engine.FundReserve(ctx, "provider", 100))

	clk.Advance(days(60))
	paid, err := engine.Withdraw(ctx, "alice", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 37, paid)
}

func TestWithdrawFailsOnEmptyReserve(t *testing.T) {
	engine, _, clk := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Stake(ctx, "alice", 10_000, Silver)
	require.NoError(t, err)

	// pool holds only the principal; principal + interest cannot be paid
	clk.Advance(days(7))
	_, err = engine.Withdraw(ctx, "alice", 0)
	assert.ErrorIs(t, err, token.ErrInsufficientReserve)

	// the stake stays open and the accounting is untouched
	stake, err := engine.StakeAt("alice", 0)
	require.NoError(t, err)
	assert.True(t, stake.Open())
	assert.EqualValues(t, 10_000, engine.TotalStakedBalance("alice"))
	assert.EqualValues(t, 10_000, engine.TotalStakedFunds())

	require.NoError(t, engine.FundReserve(ctx, "provider", 800))
	paid, err := engine.Withdraw(ctx, "alice", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 10_800, paid)
}

func TestWithdrawUnknownIndex(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Withdraw(context.Background(), "alice", 0)
	assert.ErrorIs(t, err, ErrStakeNotFound)

	_, err = engine.Withdraw(context.Background(), "alice", -1)
	assert.ErrorIs(t, err, ErrStakeNotFound)
}

func TestPauseRequiresAdmin(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	assert.ErrorIs(t, engine.Pause("alice"), ErrUnauthorized)
	assert.False(t, engine.Paused())

	require.NoError(t, engine.Pause("admin"))
	assert.True(t, engine.Paused())

	assert.ErrorIs(t, engine.Unpause("alice"), ErrUnauthorized)
	require.NoError(t, engine.Unpause("admin"))
	assert.False(t, engine.Paused())
}

func TestPauseDoesNotBlockWithdrawals(t *testing.T) {
	engine, _, clk := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Stake(ctx, "alice", 100, Silver)
	require.NoError(t, err)
	require.NoError(t, engine.FundReserve(ctx, "provider", 100))
	require.NoError(t, engine.Pause("admin"))

	clk.Advance(days(7))
	paid, err := engine.Withdraw(ctx, "alice", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 108, paid)
}

func TestFundReserveRequiresRole(t *testing.T) {
	engine, ledger, _ := newTestEngine(t)
	ctx := context.Background()

	assert.ErrorIs(t, engine.FundReserve(ctx, "alice", 100), ErrUnauthorized)
	assert.ErrorIs(t, engine.FundReserve(ctx, "provider", 0), ErrInvalidAmount)

	require.NoError(t, engine.FundReserve(ctx, "provider", 500))
	balance, err := ledger.BalanceOf(ctx, poolAccount)
	require.NoError(t, err)
	assert.EqualValues(t, 500, balance)
	// reserve funding is not staking principal
	assert.EqualValues(t, 0, engine.TotalStakedFunds())
}

func TestBalancesMatchOpenStakes(t *testing.T) {
	engine, _, clk := newTestEngine(t)
	ctx := context.Background()

	amounts := []int64{100, 250, 400}
	for _, amount := range amounts {
		_, err := engine.Stake(ctx, "alice", amount, Silver)
		require.NoError(t, err)
	}
	require.NoError(t, engine.FundReserve(ctx, "provider", 1_000))

	clk.Advance(days(7))
	_, err := engine.Withdraw(ctx, "alice", 1)
	require.NoError(t, err)

	var open int64
	for _, stake := range engine.Stakes("alice") {
		if stake.Open() {
			open += stake.Amount
		}
	}
	assert.Equal(t, open, engine.TotalStakedBalance("alice"))
	assert.Equal(t, open, engine.TotalStakedFunds())
}
