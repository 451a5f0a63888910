package rule

import (
	"time"

	"luckee-incentive/pkg/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Condition struct {
	ConditionType domain.ConditionType     `json:"condition_type"`
	Operator      domain.ConditionOperator `json:"operator"`
	Value         string                   `json:"value"`
}

type RewardCondition struct {
	ConditionType string `json:"condition_type"`
	Value         string `json:"value"`
}

// RewardDefinition is a reward template carried by a rule.
type RewardDefinition struct {
	RewardType domain.RewardType `json:"reward_type"`
	Amount     decimal.Decimal   `json:"amount"`
	Multiplier decimal.Decimal   `json:"multiplier"`
	Conditions []RewardCondition `json:"conditions"`
}

// Rule represents a rule definition stored in the database.
type Rule struct {
	RuleID     string                                `gorm:"column:rule_id;primaryKey" json:"rule_id"`
	Seq        uint64                                `gorm:"column:seq" json:"-"`
	RuleName   string                                `gorm:"column:rule_name" json:"rule_name"`
	RuleType   domain.RuleType                       `gorm:"column:rule_type" json:"rule_type"`
	Conditions datatypes.JSONSlice[Condition]        `gorm:"column:conditions" json:"conditions"`
	Rewards    datatypes.JSONSlice[RewardDefinition] `gorm:"column:rewards" json:"rewards"`
	Enabled    bool                                  `gorm:"column:enabled" json:"enabled"`
	Expression string                                `gorm:"column:expression" json:"-"`
	CreatedAt  time.Time                             `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt  time.Time                             `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName sets the table name for the Rule model.
func (Rule) TableName() string { return "rules" }
