package level

import (
	"time"

	"luckee-incentive/pkg/domain"

	"github.com/shopspring/decimal"
)

// Info is the progression record of one user. Level is only ever set explicitly.
type Info struct {
	User         string           `gorm:"column:user_id;primaryKey" json:"user"`
	Level        domain.UserLevel `gorm:"column:level" json:"level"`
	Points       uint32           `gorm:"column:points" json:"points"`
	LevelUpCount uint32           `gorm:"column:level_up_count" json:"level_up_count"`
	LastLevelUp  *time.Time       `gorm:"column:last_level_up" json:"last_level_up"`
	TotalRewards decimal.Decimal  `gorm:"column:total_rewards;type:decimal(38,0)" json:"total_rewards"`
}

func (Info) TableName() string { return "user_levels" }

func defaultInfo(user string) *Info {
	return &Info{
		User:         user,
		Level:        domain.LevelBronze,
		TotalRewards: decimal.Zero,
	}
}
