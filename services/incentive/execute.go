package incentive

import (
	"context"
	"strconv"
	"time"

	"luckee-incentive/services/reward"

	"gorm.io/gorm"
)

func (d *Dispatcher) distributeReward(ctx context.Context, tx *gorm.DB, now time.Time, st *State, m *DistributeReward) (*Response, error) {
	r, err := d.ledger.Distribute(ctx, tx, reward.DistributeParams{
		User:       m.User,
		Amount:     m.Amount,
		RewardType: m.RewardType,
		Activity:   m.ActivityType,
		Now:        now,
		Config:     st.Config,
	})
	if err != nil {
		return nil, err
	}
	return newResponse(MethodDistributeReward,
		"user", r.User,
		"reward_id", r.RewardID,
		"amount", r.Amount.String(),
	).withData(r), nil
}

func (d *Dispatcher) claimReward(ctx context.Context, tx *gorm.DB, caller string, now time.Time, m *ClaimReward) (*Response, error) {
	r, err := d.ledger.Claim(ctx, tx, caller, m.RewardID, now)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodClaimReward,
		"reward_id", r.RewardID,
		"user", caller,
	).withData(r), nil
}

func (d *Dispatcher) mintForPoints(ctx context.Context, tx *gorm.DB, now time.Time, st *State, m *MintForPoints) (*Response, error) {
	r, err := d.ledger.MintForPoints(ctx, tx, m.User, m.PointsAmount, now, st.Config)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodMintForPoints,
		"user", r.User,
		"points_amount", m.PointsAmount.String(),
		"reward_id", r.RewardID,
	).withData(r), nil
}

func (d *Dispatcher) createRule(ctx context.Context, tx *gorm.DB, now time.Time, m *CreateRule) (*Response, error) {
	r, err := d.rules.Create(ctx, tx, m.Rule, now)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodCreateRule, "rule_id", r.RuleID).withData(r), nil
}

func (d *Dispatcher) updateRule(ctx context.Context, tx *gorm.DB, now time.Time, m *UpdateRule) (*Response, error) {
	r, err := d.rules.Update(ctx, tx, m.RuleID, m.Rule, now)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodUpdateRule, "rule_id", r.RuleID).withData(r), nil
}

func (d *Dispatcher) deleteRule(ctx context.Context, tx *gorm.DB, m *DeleteRule) (*Response, error) {
	if _, err := d.rules.Delete(ctx, tx, m.RuleID); err != nil {
		return nil, err
	}
	return newResponse(MethodDeleteRule, "rule_id", m.RuleID), nil
}

func (d *Dispatcher) registerContract(ctx context.Context, tx *gorm.DB, now time.Time, m *RegisterContract) (*Response, error) {
	reg, err := d.contracts.Register(ctx, tx, m.ContractType, m.ContractAddr, now)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodRegisterContract, "contract_type", reg.ContractType.String()).withData(reg), nil
}

func (d *Dispatcher) updateUserLevel(ctx context.Context, tx *gorm.DB, m *UpdateUserLevel) (*Response, error) {
	info, err := d.levels.UpdatePoints(ctx, tx, m.User, m.Points)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodUpdateUserLevel,
		"user", info.User,
		"points", strconv.FormatUint(uint64(info.Points), 10),
	).withData(info), nil
}

func (d *Dispatcher) updateConfig(ctx context.Context, tx *gorm.DB, now time.Time, m *UpdateConfig) (*Response, error) {
	if err := d.settings.save(ctx, tx, settingConfig, m.Config, now); err != nil {
		return nil, err
	}
	return newResponse(MethodUpdateConfig).withData(m.Config), nil
}

func (d *Dispatcher) cancelReward(ctx context.Context, tx *gorm.DB, now time.Time, m *CancelReward) (*Response, error) {
	r, err := d.ledger.Cancel(ctx, tx, m.User, m.RewardID, now)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodCancelReward,
		"user", r.User,
		"reward_id", r.RewardID,
	).withData(r), nil
}

func (d *Dispatcher) expireRewards(ctx context.Context, tx *gorm.DB, now time.Time) (*Response, error) {
	n, err := d.ledger.ExpireDue(ctx, tx, now)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodExpireRewards, "expired", strconv.FormatInt(n, 10)), nil
}

func (d *Dispatcher) updateContractStatus(ctx context.Context, tx *gorm.DB, m *UpdateContractStatus) (*Response, error) {
	reg, err := d.contracts.UpdateStatus(ctx, tx, m.ContractType, m.Status)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodUpdateContractStatus,
		"contract_type", reg.ContractType.String(),
		"status", string(reg.Status),
	).withData(reg), nil
}

func (d *Dispatcher) setUserLevel(ctx context.Context, tx *gorm.DB, now time.Time, m *SetUserLevel) (*Response, error) {
	info, err := d.levels.SetLevel(ctx, tx, m.User, m.Level, now)
	if err != nil {
		return nil, err
	}
	return newResponse(MethodSetUserLevel,
		"user", info.User,
		"level", string(info.Level),
		"level_up_count", strconv.FormatUint(uint64(info.LevelUpCount), 10),
	).withData(info), nil
}
