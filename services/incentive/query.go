package incentive

import (
	"context"
	"fmt"

	"luckee-incentive/pkg/domain"
)

// Query answers a read request. Queries are never authorized and never mutate state.
func (d *Dispatcher) Query(ctx context.Context, msg QueryMsg) (any, error) {
	name, err := msg.name()
	if err != nil {
		return nil, err
	}

	ctx, span := d.tracer.Start(ctx, "incentive.query."+name)
	defer span.End()

	switch {
	case msg.Config != nil:
		st, err := d.state(ctx)
		if err != nil {
			return nil, err
		}
		return st.Config, nil
	case msg.Admin != nil:
		st, err := d.state(ctx)
		if err != nil {
			return nil, err
		}
		return AdminResponse{Admin: st.Admin}, nil
	case msg.UserRewards != nil:
		return d.ledger.UserRewards(ctx, msg.UserRewards.User)
	case msg.Rules != nil:
		return d.rules.List(ctx)
	case msg.Rule != nil:
		return d.rules.Get(ctx, msg.Rule.RuleID)
	case msg.Contracts != nil:
		return d.contracts.List(ctx)
	case msg.UserLevel != nil:
		return d.levels.Get(ctx, msg.UserLevel.User)
	case msg.SystemStats != nil:
		return d.stats.Snapshot(ctx)
	case msg.Reward != nil:
		return d.ledger.Get(ctx, msg.Reward.RewardID)
	case msg.Contract != nil:
		return d.contracts.Get(ctx, msg.Contract.ContractType)
	}
	return nil, domain.ErrInvalidMessage
}

func (d *Dispatcher) state(ctx context.Context) (*State, error) {
	st, err := d.settings.load(ctx, nil)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%w: not instantiated", domain.ErrOperationNotAllowed)
	}
	return st, nil
}

// Admin returns the stored admin.
func (d *Dispatcher) Admin(ctx context.Context) (string, error) {
	st, err := d.state(ctx)
	if err != nil {
		return "", err
	}
	return st.Admin, nil
}
