package staking

import (
	"errors"
	"math/big"
	"testing"

	"stakevault/crypto"
	nativecommon "stakevault/native/common"
)

type stubPauseView struct {
	modules map[string]bool
}

func (s stubPauseView) IsPaused(module string) bool {
	if s.modules == nil {
		return false
	}
	return s.modules[module]
}

// reentrantLedger calls back into the engine from inside the transfer, the
// way a malicious token hook would.
type reentrantLedger struct {
	*mockLedger
	engine    *Engine
	attempted bool
	innerErr  error
	inner     func(e *Engine) error
}

func (r *reentrantLedger) TransferIn(from crypto.Address, amount *big.Int) error {
	if !r.attempted {
		r.attempted = true
		r.innerErr = r.inner(r.engine)
	}
	return r.mockLedger.TransferIn(from, amount)
}

func (r *reentrantLedger) TransferOut(to crypto.Address, amount *big.Int) error {
	if !r.attempted {
		r.attempted = true
		r.innerErr = r.inner(r.engine)
	}
	return r.mockLedger.TransferOut(to, amount)
}

func TestStakeGuardBlocksMutationWhenPaused(t *testing.T) {
	f := newFixture(t)
	alice := makeAddress(0xA1)
	f.stake.fund(alice, 500)
	f.engine.SetPauses(stubPauseView{modules: map[string]bool{"staking": true}})

	if err := f.engine.Stake(alice, big.NewInt(100)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if got := f.stake.balance(alice); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected balance to remain 500, got %s", got)
	}
	if len(f.state.positions) != 0 {
		t.Fatalf("position created while paused")
	}
}

func TestReentrantStakeRejected(t *testing.T) {
	f := newFixture(t)
	alice := makeAddress(0xA1)
	f.stake.fund(alice, 500)

	hook := &reentrantLedger{
		mockLedger: f.stake,
		inner: func(e *Engine) error {
			return e.Stake(makeAddress(0xEE), big.NewInt(1))
		},
	}
	engine := NewEngine(hook, f.reward, Params{RewardRatePerHour: 100_000})
	engine.SetState(f.state)
	engine.SetNowFunc(func() int64 { return f.now })
	hook.engine = engine

	if err := engine.Stake(alice, big.NewInt(100)); err != nil {
		t.Fatalf("outer stake: %v", err)
	}
	if !hook.attempted {
		t.Fatalf("reentrant callback never fired")
	}
	if !errors.Is(hook.innerErr, ErrReentrancy) {
		t.Fatalf("expected inner ErrReentrancy, got %v", hook.innerErr)
	}
	if len(f.state.positions) != 1 {
		t.Fatalf("reentrant call mutated state: %d positions", len(f.state.positions))
	}
}

func TestReentrantWithdrawRejected(t *testing.T) {
	f := newFixture(t)
	alice := makeAddress(0xA1)
	f.stake.fund(alice, 500)
	if err := f.engine.Stake(alice, big.NewInt(200)); err != nil {
		t.Fatalf("stake: %v", err)
	}

	hook := &reentrantLedger{
		mockLedger: f.stake,
		inner: func(e *Engine) error {
			return e.Withdraw(makeAddress(0xA1), big.NewInt(1))
		},
	}
	engine := NewEngine(hook, f.reward, Params{RewardRatePerHour: 100_000})
	engine.SetState(f.state)
	engine.SetNowFunc(func() int64 { return f.now })
	hook.engine = engine

	if err := engine.Withdraw(alice, big.NewInt(50)); err != nil {
		t.Fatalf("outer withdraw: %v", err)
	}
	if !errors.Is(hook.innerErr, ErrReentrancy) {
		t.Fatalf("expected inner ErrReentrancy, got %v", hook.innerErr)
	}
	pos := f.state.positions[f.state.key(alice)]
	if pos.StakedAmount.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("expected 150 staked after single withdraw, got %s", pos.StakedAmount)
	}
}

func TestReentrantClaimRejected(t *testing.T) {
	f := newFixture(t)
	alice := makeAddress(0xA1)
	f.stake.fund(alice, 500)
	if err := f.engine.Stake(alice, big.NewInt(100)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(3600)
	f.reward.custody = big.NewInt(10_000_000)

	hook := &reentrantLedger{
		mockLedger: f.reward,
		inner: func(e *Engine) error {
			_, err := e.ClaimRewards(makeAddress(0xA1))
			return err
		},
	}
	engine := NewEngine(f.stake, hook, Params{RewardRatePerHour: 100_000})
	engine.SetState(f.state)
	engine.SetNowFunc(func() int64 { return f.now })
	hook.engine = engine

	paid, err := engine.ClaimRewards(alice)
	if err != nil {
		t.Fatalf("outer claim: %v", err)
	}
	if paid.Cmp(big.NewInt(10_000_000)) != 0 {
		t.Fatalf("unexpected payout: %s", paid)
	}
	if !errors.Is(hook.innerErr, ErrReentrancy) {
		t.Fatalf("expected inner ErrReentrancy, got %v", hook.innerErr)
	}
}

func TestGuardReleasedAfterFailure(t *testing.T) {
	f := newFixture(t)
	alice := makeAddress(0xA1)

	// First call fails before any transfer; the guard must not stay held.
	if err := f.engine.Stake(alice, big.NewInt(10)); !errors.Is(err, ErrNoOwnership) {
		t.Fatalf("expected ErrNoOwnership, got %v", err)
	}
	f.stake.fund(alice, 100)
	if err := f.engine.Stake(alice, big.NewInt(10)); err != nil {
		t.Fatalf("guard not released after failed call: %v", err)
	}
}
