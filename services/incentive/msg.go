package incentive

import (
	"fmt"

	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/events"
	"luckee-incentive/services/rule"

	"github.com/shopspring/decimal"
)

type InstantiateMsg struct {
	Admin  *string                `json:"admin,omitempty"`
	Config domain.IncentiveConfig `json:"config"`
}

type DistributeReward struct {
	User         string            `json:"user"`
	Amount       decimal.Decimal   `json:"amount"`
	ActivityType domain.Activity   `json:"activity_type"`
	RewardType   domain.RewardType `json:"reward_type,omitempty"`
}

type ClaimReward struct {
	RewardID string `json:"reward_id"`
}

type MintForPoints struct {
	User         string          `json:"user"`
	PointsAmount decimal.Decimal `json:"points_amount"`
}

type CreateRule struct {
	Rule rule.Rule `json:"rule"`
}

type UpdateRule struct {
	RuleID string    `json:"rule_id"`
	Rule   rule.Rule `json:"rule"`
}

type DeleteRule struct {
	RuleID string `json:"rule_id"`
}

type RegisterContract struct {
	ContractType domain.ContractType `json:"contract_type"`
	ContractAddr string              `json:"contract_addr"`
}

type UpdateUserLevel struct {
	User   string `json:"user"`
	Points uint32 `json:"points"`
}

type UpdateConfig struct {
	Config domain.IncentiveConfig `json:"config"`
}

type CancelReward struct {
	User     string `json:"user"`
	RewardID string `json:"reward_id"`
}

type ExpireRewards struct{}

type UpdateContractStatus struct {
	ContractType domain.ContractType   `json:"contract_type"`
	Status       domain.ContractStatus `json:"status"`
}

type SetUserLevel struct {
	User  string           `json:"user"`
	Level domain.UserLevel `json:"level"`
}

// ExecuteMsg is an externally tagged command: exactly one field is set.
type ExecuteMsg struct {
	DistributeReward     *DistributeReward     `json:"distribute_reward,omitempty"`
	ClaimReward          *ClaimReward          `json:"claim_reward,omitempty"`
	MintForPoints        *MintForPoints        `json:"mint_for_points,omitempty"`
	CreateRule           *CreateRule           `json:"create_rule,omitempty"`
	UpdateRule           *UpdateRule           `json:"update_rule,omitempty"`
	DeleteRule           *DeleteRule           `json:"delete_rule,omitempty"`
	RegisterContract     *RegisterContract     `json:"register_contract,omitempty"`
	UpdateUserLevel      *UpdateUserLevel      `json:"update_user_level,omitempty"`
	UpdateConfig         *UpdateConfig         `json:"update_config,omitempty"`
	CancelReward         *CancelReward         `json:"cancel_reward,omitempty"`
	ExpireRewards        *ExpireRewards        `json:"expire_rewards,omitempty"`
	UpdateContractStatus *UpdateContractStatus `json:"update_contract_status,omitempty"`
	SetUserLevel         *SetUserLevel         `json:"set_user_level,omitempty"`
}

const (
	MethodInstantiate          = "instantiate"
	MethodDistributeReward     = "distribute_reward"
	MethodClaimReward          = "claim_reward"
	MethodMintForPoints        = "mint_for_points"
	MethodCreateRule           = "create_rule"
	MethodUpdateRule           = "update_rule"
	MethodDeleteRule           = "delete_rule"
	MethodRegisterContract     = "register_contract"
	MethodUpdateUserLevel      = "update_user_level"
	MethodUpdateConfig         = "update_config"
	MethodCancelReward         = "cancel_reward"
	MethodExpireRewards        = "expire_rewards"
	MethodUpdateContractStatus = "update_contract_status"
	MethodSetUserLevel         = "set_user_level"
)

// Method names the single command carried by m.
func (m ExecuteMsg) Method() (string, error) {
	var set []string
	add := func(ok bool, name string) {
		if ok {
			set = append(set, name)
		}
	}
	add(m.DistributeReward != nil, MethodDistributeReward)
	add(m.ClaimReward != nil, MethodClaimReward)
	add(m.MintForPoints != nil, MethodMintForPoints)
	add(m.CreateRule != nil, MethodCreateRule)
	add(m.UpdateRule != nil, MethodUpdateRule)
	add(m.DeleteRule != nil, MethodDeleteRule)
	add(m.RegisterContract != nil, MethodRegisterContract)
	add(m.UpdateUserLevel != nil, MethodUpdateUserLevel)
	add(m.UpdateConfig != nil, MethodUpdateConfig)
	add(m.CancelReward != nil, MethodCancelReward)
	add(m.ExpireRewards != nil, MethodExpireRewards)
	add(m.UpdateContractStatus != nil, MethodUpdateContractStatus)
	add(m.SetUserLevel != nil, MethodSetUserLevel)

	if len(set) != 1 {
		return "", fmt.Errorf("%w: expected exactly one command, got %d", domain.ErrInvalidMessage, len(set))
	}
	return set[0], nil
}

type UserQuery struct {
	User string `json:"user"`
}

type RuleQuery struct {
	RuleID string `json:"rule_id"`
}

type RewardQuery struct {
	RewardID string `json:"reward_id"`
}

type ContractQuery struct {
	ContractType domain.ContractType `json:"contract_type"`
}

type Empty struct{}

// QueryMsg is an externally tagged read request: exactly one field is set.
type QueryMsg struct {
	Config      *Empty     `json:"config,omitempty"`
	UserRewards *UserQuery `json:"user_rewards,omitempty"`
	Rules       *Empty     `json:"rules,omitempty"`
	Rule        *RuleQuery `json:"rule,omitempty"`
	Contracts   *Empty     `json:"contracts,omitempty"`
	UserLevel   *UserQuery `json:"user_level,omitempty"`
	SystemStats *Empty     `json:"system_stats,omitempty"`
	Admin       *Empty     `json:"admin,omitempty"`

	Reward   *RewardQuery   `json:"reward,omitempty"`
	Contract *ContractQuery `json:"contract,omitempty"`
}

func (q QueryMsg) name() (string, error) {
	var set []string
	add := func(ok bool, name string) {
		if ok {
			set = append(set, name)
		}
	}
	add(q.Config != nil, "config")
	add(q.UserRewards != nil, "user_rewards")
	add(q.Rules != nil, "rules")
	add(q.Rule != nil, "rule")
	add(q.Contracts != nil, "contracts")
	add(q.UserLevel != nil, "user_level")
	add(q.SystemStats != nil, "system_stats")
	add(q.Admin != nil, "admin")
	add(q.Reward != nil, "reward")
	add(q.Contract != nil, "contract")

	if len(set) != 1 {
		return "", fmt.Errorf("%w: expected exactly one query, got %d", domain.ErrInvalidMessage, len(set))
	}
	return set[0], nil
}

// Response is returned by every successful command. Attributes start with method.
type Response struct {
	Attributes []events.Attribute `json:"attributes"`
	Data       any                `json:"data,omitempty"`
}

func newResponse(method string, kv ...string) *Response {
	attrs := make([]events.Attribute, 0, len(kv)/2+1)
	attrs = append(attrs, events.NewAttribute("method", method))
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, events.NewAttribute(kv[i], kv[i+1]))
	}
	return &Response{Attributes: attrs}
}

func (r *Response) withData(v any) *Response {
	r.Data = v
	return r
}

// Attr returns the value of the first attribute named key.
func (r *Response) Attr(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

type AdminResponse struct {
	Admin string `json:"admin"`
}
