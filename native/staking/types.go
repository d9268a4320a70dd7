package staking

import (
	"math/big"

	"stakevault/crypto"
)

// Position maintains the staking ledger entry for an individual participant.
// Amounts are denominated in wei and expressed as big integers; a zero-valued
// position is indistinguishable from one that never existed.
type Position struct {
	// Address is the unique participant identifier.
	Address crypto.Address
	// StakedAmount is the stake-token amount currently held in custody for
	// this participant. Never negative.
	StakedAmount *big.Int
	// UnclaimedRewards is the reward amount already computed and banked but
	// not yet paid out. Reset to zero only by a successful claim.
	UnclaimedRewards *big.Int
	// LastUpdateTime is the unix timestamp at which pending rewards were last
	// folded into UnclaimedRewards. Non-decreasing.
	LastUpdateTime uint64
}

// Clone returns a deep copy so staged mutations never alias stored state.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	cloned := &Position{
		Address:        p.Address,
		LastUpdateTime: p.LastUpdateTime,
	}
	if p.StakedAmount != nil {
		cloned.StakedAmount = new(big.Int).Set(p.StakedAmount)
	}
	if p.UnclaimedRewards != nil {
		cloned.UnclaimedRewards = new(big.Int).Set(p.UnclaimedRewards)
	}
	return cloned
}
