package domain

// IncentiveConfig is the ledger wide configuration set at instantiation.
type IncentiveConfig struct {
	MaxRewardsPerUser    uint32 `json:"max_rewards_per_user" mapstructure:"max_rewards_per_user"`
	RewardExpirationDays uint64 `json:"reward_expiration_days" mapstructure:"reward_expiration_days"`
	AutoClaimEnabled     bool   `json:"auto_claim_enabled" mapstructure:"auto_claim_enabled"`
}
