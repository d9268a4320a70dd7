package staking

import "errors"

var (
	// ErrNilState signals the engine was used before SetState wired storage.
	ErrNilState = errors.New("staking engine: state not configured")
	// ErrInvalidAmount rejects zero or negative stake movements.
	ErrInvalidAmount = errors.New("staking engine: amount must be positive")
	// ErrNoOwnership rejects a stake from a caller with no stake-token balance.
	ErrNoOwnership = errors.New("staking engine: caller holds no stake token")
	// ErrNoStake rejects a withdrawal when nothing is staked.
	ErrNoStake = errors.New("staking engine: no stake present")
	// ErrInsufficientStake rejects a withdrawal exceeding the staked amount.
	ErrInsufficientStake = errors.New("staking engine: withdrawal exceeds staked amount")
	// ErrNoRewards rejects a claim when the payable reward balance is zero.
	ErrNoRewards = errors.New("staking engine: no rewards available")
	// ErrReentrancy rejects a mutating call while another is in flight.
	ErrReentrancy = errors.New("staking engine: reentrant call rejected")
)
