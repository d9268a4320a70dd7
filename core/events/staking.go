package events

import (
	"math/big"
	"strconv"

	"stakevault/crypto"
)

const (
	// TypeStakingStaked captures a stake deposit folded into a position.
	TypeStakingStaked = "staking.staked"
	// TypeStakingWithdrawn captures stake returned to its owner.
	TypeStakingWithdrawn = "staking.withdrawn"
	// TypeStakingRewardsClaimed is emitted when accrued rewards are paid out.
	TypeStakingRewardsClaimed = "staking.rewardsClaimed"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// StakingStaked captures the position delta realised when staking.
type StakingStaked struct {
	Account     crypto.Address
	Amount      *big.Int
	StakedTotal *big.Int
	RewardsOwed *big.Int
	UpdatedAtTs int64
}

// Event converts the structured payload into a broadcastable event.
func (e StakingStaked) Event() Event {
	return Event{
		Type: TypeStakingStaked,
		Attributes: map[string]string{
			"addr":        e.Account.String(),
			"amount":      formatAmount(e.Amount),
			"stakedTotal": formatAmount(e.StakedTotal),
			"rewardsOwed": formatAmount(e.RewardsOwed),
			"updatedAt":   strconv.FormatInt(e.UpdatedAtTs, 10),
		},
	}
}

// StakingWithdrawn captures the position delta realised when withdrawing.
type StakingWithdrawn struct {
	Account     crypto.Address
	Amount      *big.Int
	StakedTotal *big.Int
	RewardsOwed *big.Int
	UpdatedAtTs int64
}

// Event converts the structured payload into a broadcastable event.
func (e StakingWithdrawn) Event() Event {
	return Event{
		Type: TypeStakingWithdrawn,
		Attributes: map[string]string{
			"addr":        e.Account.String(),
			"amount":      formatAmount(e.Amount),
			"stakedTotal": formatAmount(e.StakedTotal),
			"rewardsOwed": formatAmount(e.RewardsOwed),
			"updatedAt":   strconv.FormatInt(e.UpdatedAtTs, 10),
		},
	}
}

// StakingRewardsClaimed records a reward payout leaving custody.
type StakingRewardsClaimed struct {
	Account     crypto.Address
	Paid        *big.Int
	UpdatedAtTs int64
}

// Event converts the structured payload into a broadcastable event.
func (e StakingRewardsClaimed) Event() Event {
	return Event{
		Type: TypeStakingRewardsClaimed,
		Attributes: map[string]string{
			"addr":      e.Account.String(),
			"paid":      formatAmount(e.Paid),
			"updatedAt": strconv.FormatInt(e.UpdatedAtTs, 10),
		},
	}
}
