package staking

// DefaultRewardRatePerHour is the emission rate applied when the host supplies
// no explicit configuration, expressed in reward-wei per staked token per hour.
const DefaultRewardRatePerHour uint64 = 100_000

// Params groups the fixed construction-time configuration of the engine. The
// reward rate is immutable for the lifetime of the engine; rate governance is
// deliberately out of scope.
type Params struct {
	// RewardRatePerHour is the reward-wei accrued per staked token per hour.
	RewardRatePerHour uint64
}

// DefaultParams returns the parameter set used by the daemon when the config
// file does not override the rate.
func DefaultParams() Params {
	return Params{RewardRatePerHour: DefaultRewardRatePerHour}
}
