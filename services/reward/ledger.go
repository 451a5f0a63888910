package reward

import (
	"context"
	"fmt"
	"time"

	"luckee-incentive/pkg/db/option"
	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/repository"
	"luckee-incentive/pkg/sequence"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger owns reward records. Mutating methods take the caller's transaction; a nil tx runs the
// call in a transaction of its own.
type Ledger struct {
	db      *gorm.DB
	node    *snowflake.Node
	seq     sequence.Generator
	rewards repository.Repository[Reward]
	logger  *zap.Logger
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Node      *snowflake.Node
	Generator sequence.Generator
	Logger    *zap.Logger `optional:"true"`
}

func NewLedger(p Params) *Ledger {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		db:      p.DB,
		node:    p.Node,
		seq:     p.Generator,
		rewards: repository.ProvideStore[Reward](p.DB),
		logger:  logger.Named("reward"),
	}
}

func (l *Ledger) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return l.db.WithContext(ctx).Transaction(fn)
}

// Distribute appends a Pending reward for p.User and returns it.
func (l *Ledger) Distribute(ctx context.Context, tx *gorm.DB, p DistributeParams) (*Reward, error) {
	if p.User == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidMessage)
	}
	if err := domain.ValidateAmount(p.Amount); err != nil {
		return nil, err
	}
	if err := p.Activity.Validate(); err != nil {
		return nil, err
	}
	if p.RewardType == "" {
		p.RewardType = domain.RewardTypeToken
	}
	if !p.RewardType.IsValid() {
		return nil, fmt.Errorf("%w: unknown reward type %q", domain.ErrInvalidMessage, p.RewardType)
	}

	var created *Reward
	err := l.inTx(ctx, tx, func(tx *gorm.DB) error {
		if limit := p.Config.MaxRewardsPerUser; limit > 0 {
			// aggregates cannot take row locks, so lock the user's rows and count them here
			var ids []string
			if err := tx.WithContext(ctx).Model(&Reward{}).
				Scopes(option.LockingUpdate).
				Where("user_id = ?", p.User).
				Pluck("id", &ids).Error; err != nil {
				return domain.SystemError(err)
			}
			if len(ids) >= int(limit) {
				return fmt.Errorf("%w: %s already holds %d rewards", domain.ErrOperationNotAllowed, p.User, len(ids))
			}
		}

		id, err := l.seq.Next(ctx, tx, sequence.NamespaceReward)
		if err != nil {
			return domain.SystemError(err)
		}

		now := p.Now.UTC()
		r := &Reward{
			ID:           l.node.Generate().String(),
			Seq:          id.Value,
			RewardID:     id.String(),
			User:         p.User,
			Amount:       p.Amount,
			RewardType:   p.RewardType,
			ActivityType: p.Activity,
			CreatedAt:    now,
			Status:       domain.RewardStatusPending,
		}
		if days := p.Config.RewardExpirationDays; days > 0 {
			expires := now.Add(time.Duration(days) * 24 * time.Hour)
			r.ExpiresAt = &expires
		}

		if err := l.rewards.WithTrx(tx).Create(ctx, r); err != nil {
			return domain.SystemError(err)
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("reward distributed",
		zap.String("reward_id", created.RewardID),
		zap.String("user", created.User),
		zap.String("amount", created.Amount.String()),
	)
	return created, nil
}

// MintForPoints converts points 1:1 into a Token reward. Amounts below domain.MinPointsExchange
// are rejected.
func (l *Ledger) MintForPoints(ctx context.Context, tx *gorm.DB, user string, points decimal.Decimal, now time.Time, cfg domain.IncentiveConfig) (*Reward, error) {
	if err := domain.ValidateAmount(points); err != nil {
		return nil, err
	}
	if points.LessThan(domain.MinPointsExchange) {
		return nil, fmt.Errorf("%w: %s is below the minimum exchange of %s", domain.ErrInvalidAmount, points, domain.MinPointsExchange)
	}
	return l.Distribute(ctx, tx, DistributeParams{
		User:       user,
		Amount:     points,
		RewardType: domain.RewardTypeToken,
		Activity:   domain.NewCustomActivity(domain.PointsExchangeActivityID),
		Now:        now,
		Config:     cfg,
	})
}

// Claim moves the caller's own Pending reward to Claimed.
func (l *Ledger) Claim(ctx context.Context, tx *gorm.DB, caller, rewardID string, now time.Time) (*Reward, error) {
	return l.transition(ctx, tx, caller, rewardID, now, domain.RewardStatusClaimed)
}

// Cancel moves a Pending reward of user to Cancelled.
func (l *Ledger) Cancel(ctx context.Context, tx *gorm.DB, user, rewardID string, now time.Time) (*Reward, error) {
	return l.transition(ctx, tx, user, rewardID, now, domain.RewardStatusCancelled)
}

func (l *Ledger) transition(ctx context.Context, tx *gorm.DB, user, rewardID string, now time.Time, to domain.RewardStatus) (*Reward, error) {
	if user == "" || rewardID == "" {
		return nil, fmt.Errorf("%w: user and reward_id are required", domain.ErrInvalidMessage)
	}

	var updated *Reward
	err := l.inTx(ctx, tx, func(tx *gorm.DB) error {
		rewards := l.rewards.WithTrx(tx)

		r, err := rewards.FindOne(ctx, nil,
			option.Equal("reward_id", rewardID),
			option.Equal("user_id", user),
			option.WithLockingUpdate(),
		)
		if err != nil {
			return domain.SystemError(err)
		}
		if r == nil {
			return fmt.Errorf("%w: %s", domain.ErrRewardNotFound, rewardID)
		}
		if err := r.claimable(now); err != nil {
			return fmt.Errorf("%w: %s is %s", err, rewardID, r.Status)
		}

		updates := map[string]any{"status": to}
		r.Status = to
		if to == domain.RewardStatusClaimed {
			claimedAt := now.UTC()
			r.ClaimedAt = &claimedAt
			updates["claimed_at"] = claimedAt
		}

		if err := rewards.Update(ctx, r.ID, updates); err != nil {
			return domain.SystemError(err)
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ExpireDue flips every Pending reward whose expiry is at or before now to Expired and returns
// how many were flipped.
func (l *Ledger) ExpireDue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	var affected int64
	err := l.inTx(ctx, tx, func(tx *gorm.DB) error {
		n, err := l.rewards.WithTrx(tx).UpdateMany(ctx,
			map[string]any{"status": domain.RewardStatusExpired},
			option.Equal("status", domain.RewardStatusPending),
			option.WithNull("expires_at", false),
			option.ApplyOperator(option.Condition{Field: "expires_at", Operator: option.LTE, Value: now.UTC()}),
		)
		if err != nil {
			return domain.SystemError(err)
		}
		affected = n
		return nil
	})
	return affected, err
}

// UserRewards returns the rewards of user in creation order, or an empty slice.
func (l *Ledger) UserRewards(ctx context.Context, user string) ([]*Reward, error) {
	rewards, err := l.rewards.Find(ctx, nil,
		option.Equal("user_id", user),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "seq",
			OrderBy: "asc",
			Allow:   map[string]bool{"seq": true},
		}),
	)
	if err != nil {
		return nil, domain.SystemError(err)
	}
	return rewards, nil
}

// Get returns the reward with rewardID or domain.ErrRewardNotFound.
func (l *Ledger) Get(ctx context.Context, rewardID string) (*Reward, error) {
	r, err := l.rewards.FindOne(ctx, nil, option.Equal("reward_id", rewardID))
	if err != nil {
		return nil, domain.SystemError(err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRewardNotFound, rewardID)
	}
	return r, nil
}

// Totals counts distinct users holding any reward and sums every amount regardless of status.
func (l *Ledger) Totals(ctx context.Context) (Totals, error) {
	var row struct {
		Users  int64
		Amount decimal.NullDecimal
	}
	err := l.db.WithContext(ctx).Model(&Reward{}).
		Select("COUNT(DISTINCT user_id) AS users, SUM(amount) AS amount").
		Scan(&row).Error
	if err != nil {
		return Totals{}, domain.SystemError(err)
	}

	total := decimal.Zero
	if row.Amount.Valid {
		total = row.Amount.Decimal
	}
	return Totals{Users: row.Users, Amount: total}, nil
}
