package staking

import (
	"math/big"
	"sync"
	"time"

	"stakevault/core/events"
	"stakevault/crypto"
	nativecommon "stakevault/native/common"
	"stakevault/token"
)

const moduleName = "staking"

const secondsPerHour = 3600

type engineState interface {
	GetPosition(addr crypto.Address) (*Position, error)
	PutPosition(pos *Position) error
}

// Engine orchestrates the staking ledger state transitions. It owns every
// Position exclusively: all mutation flows through Stake, Withdraw and
// ClaimRewards, each of which folds pending rewards into the banked balance
// before the stake size changes, invokes the external token transfer, and
// persists the staged position only after the transfer succeeds.
type Engine struct {
	mu          sync.Mutex
	state       engineState
	stakeToken  token.Ledger
	rewardToken token.Ledger
	params      Params
	pauses      nativecommon.PauseView
	emitter     events.Emitter
	nowFn       func() int64
}

// NewEngine constructs a staking engine bound to the stake and reward token
// ledgers. Both references and the reward rate are fixed for the lifetime of
// the engine.
func NewEngine(stakeToken, rewardToken token.Ledger, params Params) *Engine {
	return &Engine{
		stakeToken:  stakeToken,
		rewardToken: rewardToken,
		params:      params,
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses configures the operator pause switch consulted on every mutation.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if e == nil {
		return
	}
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Params returns the fixed engine configuration.
func (e *Engine) Params() Params {
	if e == nil {
		return Params{}
	}
	return e.params
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

// acquire takes the per-engine mutual exclusion guard. A call arriving while
// the guard is held is rejected immediately, never queued, which is what
// closes the reentrancy window opened by the external transfer callbacks.
func (e *Engine) acquire() error {
	if !e.mu.TryLock() {
		return ErrReentrancy
	}
	return nil
}

// Stake moves amount of the stake token from the caller into custody and
// grows their position. Rewards pending on the existing stake are folded into
// the banked balance first so the new stake size never applies retroactively.
func (e *Engine) Stake(addr crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	balance, err := e.stakeToken.BalanceOf(addr)
	if err != nil {
		return err
	}
	if balance.Sign() == 0 {
		return ErrNoOwnership
	}

	pos, err := e.ensurePosition(addr)
	if err != nil {
		return err
	}
	now := e.now()

	next := pos.Clone()
	if next.StakedAmount.Sign() > 0 {
		pending := accrued(next, now, e.params.RewardRatePerHour)
		next.UnclaimedRewards = new(big.Int).Add(next.UnclaimedRewards, pending)
	}
	next.StakedAmount = new(big.Int).Add(next.StakedAmount, amount)
	next.LastUpdateTime = clampTime(pos.LastUpdateTime, now)

	// The ledger enforces that the caller's balance covers the full amount,
	// not merely that it is nonzero.
	if err := e.stakeToken.TransferIn(addr, amount); err != nil {
		return err
	}
	if err := e.state.PutPosition(next); err != nil {
		return err
	}

	e.emit(events.StakingStaked{
		Account:     addr,
		Amount:      new(big.Int).Set(amount),
		StakedTotal: new(big.Int).Set(next.StakedAmount),
		RewardsOwed: new(big.Int).Set(next.UnclaimedRewards),
		UpdatedAtTs: now,
	}.Event())
	return nil
}

// Withdraw settles reward accrual for the elapsed period, shrinks the
// position and releases amount of the stake token back to the caller.
func (e *Engine) Withdraw(addr crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pos, err := e.ensurePosition(addr)
	if err != nil {
		return err
	}
	if pos.StakedAmount.Sign() == 0 {
		return ErrNoStake
	}
	if amount.Cmp(pos.StakedAmount) > 0 {
		return ErrInsufficientStake
	}
	now := e.now()

	next := pos.Clone()
	pending := accrued(next, now, e.params.RewardRatePerHour)
	next.UnclaimedRewards = new(big.Int).Add(next.UnclaimedRewards, pending)
	next.StakedAmount = new(big.Int).Sub(next.StakedAmount, amount)
	next.LastUpdateTime = clampTime(pos.LastUpdateTime, now)

	if err := e.stakeToken.TransferOut(addr, amount); err != nil {
		return err
	}
	if err := e.state.PutPosition(next); err != nil {
		return err
	}

	e.emit(events.StakingWithdrawn{
		Account:     addr,
		Amount:      new(big.Int).Set(amount),
		StakedTotal: new(big.Int).Set(next.StakedAmount),
		RewardsOwed: new(big.Int).Set(next.UnclaimedRewards),
		UpdatedAtTs: now,
	}.Event())
	return nil
}

// ClaimRewards pays out the full payable reward balance, pending plus banked,
// and re-anchors the accrual clock. The paid amount is returned.
func (e *Engine) ClaimRewards(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	pos, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	now := e.now()

	payable := new(big.Int).Add(accrued(pos, now, e.params.RewardRatePerHour), pos.UnclaimedRewards)
	if payable.Sign() == 0 {
		return nil, ErrNoRewards
	}

	next := pos.Clone()
	next.UnclaimedRewards = big.NewInt(0)
	next.LastUpdateTime = clampTime(pos.LastUpdateTime, now)

	if err := e.rewardToken.TransferOut(addr, payable); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(next); err != nil {
		return nil, err
	}

	e.emit(events.StakingRewardsClaimed{
		Account:     addr,
		Paid:        new(big.Int).Set(payable),
		UpdatedAtTs: now,
	}.Event())
	return payable, nil
}

// CalculateRewards returns the reward accrued between the position's last
// update and now, before any banked balance. Pure and read-only.
func (e *Engine) CalculateRewards(addr crypto.Address, now int64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	return accrued(pos, now, e.params.RewardRatePerHour), nil
}

// AvailableRewards returns the total amount a claim issued at now would pay:
// accrued pending rewards plus the banked unclaimed balance.
func (e *Engine) AvailableRewards(addr crypto.Address, now int64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(accrued(pos, now, e.params.RewardRatePerHour), pos.UnclaimedRewards), nil
}

// StakedTokens returns the stake-token amount currently held in custody for
// the participant.
func (e *Engine) StakedTokens(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(pos.StakedAmount), nil
}

// Position returns a copy of the stored position for queries.
func (e *Engine) Position(addr crypto.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.ensurePosition(addr)
}

func (e *Engine) ensurePosition(addr crypto.Address) (*Position, error) {
	pos, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{Address: addr}
	}
	if pos.StakedAmount == nil {
		pos.StakedAmount = big.NewInt(0)
	}
	if pos.UnclaimedRewards == nil {
		pos.UnclaimedRewards = big.NewInt(0)
	}
	return pos, nil
}

// accrued computes floor(elapsed * staked * ratePerHour / 3600). The timestamp
// ordering invariant keeps the result non-negative; a clock reading at or
// before the last update yields exactly zero.
func accrued(pos *Position, now int64, ratePerHour uint64) *big.Int {
	if pos == nil || pos.StakedAmount == nil || pos.StakedAmount.Sign() == 0 {
		return big.NewInt(0)
	}
	if now <= 0 || uint64(now) <= pos.LastUpdateTime {
		return big.NewInt(0)
	}
	elapsed := new(big.Int).SetUint64(uint64(now) - pos.LastUpdateTime)
	reward := new(big.Int).Mul(elapsed, pos.StakedAmount)
	reward.Mul(reward, new(big.Int).SetUint64(ratePerHour))
	return reward.Quo(reward, big.NewInt(secondsPerHour))
}

// clampTime keeps LastUpdateTime non-decreasing even if the host clock steps
// backwards between calls.
func clampTime(last uint64, now int64) uint64 {
	if now <= 0 || uint64(now) < last {
		return last
	}
	return uint64(now)
}
