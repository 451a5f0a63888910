package reward

import (
	"time"

	"luckee-incentive/pkg/domain"

	"github.com/shopspring/decimal"
)

// Reward is one grant recorded for a user. A user's rewards are ordered by Seq, the numeric part
// of RewardID.
type Reward struct {
	ID           string              `gorm:"column:id;primaryKey" json:"-"`
	Seq          uint64              `gorm:"column:seq;uniqueIndex" json:"-"`
	RewardID     string              `gorm:"column:reward_id;uniqueIndex" json:"reward_id"`
	User         string              `gorm:"column:user_id;index:idx_rewards_user_status" json:"user"`
	Amount       decimal.Decimal     `gorm:"column:amount;type:decimal(38,0)" json:"amount"`
	RewardType   domain.RewardType   `gorm:"column:reward_type" json:"reward_type"`
	ActivityType domain.Activity     `gorm:"column:activity_type;type:text" json:"activity_type"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	ClaimedAt    *time.Time          `gorm:"column:claimed_at" json:"claimed_at"`
	ExpiresAt    *time.Time          `gorm:"column:expires_at;index" json:"expires_at"`
	Status       domain.RewardStatus `gorm:"column:status;index:idx_rewards_user_status" json:"status"`
}

func (Reward) TableName() string { return "rewards" }

// claimable reports why the reward cannot move out of Pending at now, or nil.
func (r *Reward) claimable(now time.Time) error {
	switch r.Status {
	case domain.RewardStatusPending:
		if r.ExpiresAt != nil && !now.Before(*r.ExpiresAt) {
			return domain.ErrRewardExpired
		}
		return nil
	case domain.RewardStatusClaimed:
		return domain.ErrRewardAlreadyClaimed
	case domain.RewardStatusExpired:
		return domain.ErrRewardExpired
	default:
		return domain.ErrOperationNotAllowed
	}
}

type DistributeParams struct {
	User       string
	Amount     decimal.Decimal
	RewardType domain.RewardType
	Activity   domain.Activity
	Now        time.Time
	Config     domain.IncentiveConfig
}

// Totals is the ledger wide aggregate used by system stats.
type Totals struct {
	Users  int64
	Amount decimal.Decimal
}
