package domain

type RewardType string

const (
	RewardTypeToken       RewardType = "token"
	RewardTypeNft         RewardType = "nft"
	RewardTypeLevelPoints RewardType = "level_points"
	RewardTypeCustom      RewardType = "custom"
)

func (t RewardType) IsValid() bool {
	switch t {
	case RewardTypeToken, RewardTypeNft, RewardTypeLevelPoints, RewardTypeCustom:
		return true
	}
	return false
}

type RewardStatus string

const (
	RewardStatusPending   RewardStatus = "pending"
	RewardStatusClaimed   RewardStatus = "claimed"
	RewardStatusExpired   RewardStatus = "expired"
	RewardStatusCancelled RewardStatus = "cancelled"
)

type RuleType string

const (
	RuleTypeActivityBased RuleType = "activity_based"
	RuleTypeLevelBased    RuleType = "level_based"
	RuleTypeTimeBased     RuleType = "time_based"
	RuleTypeCustom        RuleType = "custom"
)

func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeActivityBased, RuleTypeLevelBased, RuleTypeTimeBased, RuleTypeCustom:
		return true
	}
	return false
}

type ConditionType string

const (
	ConditionActivityType ConditionType = "activity_type"
	ConditionUserLevel    ConditionType = "user_level"
	ConditionTimeRange    ConditionType = "time_range"
	ConditionAmount       ConditionType = "amount"
	ConditionCustom       ConditionType = "custom"
)

type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorContains    ConditionOperator = "contains"
	OperatorIn          ConditionOperator = "in"
)

type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusInactive  ContractStatus = "inactive"
	ContractStatusSuspended ContractStatus = "suspended"
)

func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusActive, ContractStatusInactive, ContractStatusSuspended:
		return true
	}
	return false
}

// UserLevel is an ordered progression tier, lowest first.
type UserLevel string

const (
	LevelBronze      UserLevel = "bronze"
	LevelSilver      UserLevel = "silver"
	LevelGold        UserLevel = "gold"
	LevelPlatinum    UserLevel = "platinum"
	LevelDiamond     UserLevel = "diamond"
	LevelMaster      UserLevel = "master"
	LevelGrandMaster UserLevel = "grand_master"
)

var levelOrder = []UserLevel{
	LevelBronze,
	LevelSilver,
	LevelGold,
	LevelPlatinum,
	LevelDiamond,
	LevelMaster,
	LevelGrandMaster,
}

// Rank returns the zero based position of the level, or -1 for an unknown level.
func (l UserLevel) Rank() int {
	for i, v := range levelOrder {
		if v == l {
			return i
		}
	}
	return -1
}

func (l UserLevel) IsValid() bool {
	return l.Rank() >= 0
}
