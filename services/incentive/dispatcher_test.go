package incentive

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"luckee-incentive/pkg/address"
	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/events"
	"luckee-incentive/pkg/sequence"
	"luckee-incentive/services/contract"
	"luckee-incentive/services/level"
	"luckee-incentive/services/reward"
	"luckee-incentive/services/rule"
	"luckee-incentive/services/stats"
	"luckee-incentive/services/testutil"
)

const admin = "admin"

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) methods() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Method)
	}
	return out
}

type fixture struct {
	d     *Dispatcher
	clock *testutil.Clock
	pub   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t, Models()...)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	gen := sequence.NewGenerator()
	validator := address.NewValidator("")
	clock := testutil.NewClock(t0)

	ledger := reward.NewLedger(reward.Params{DB: db, Node: node, Generator: gen})
	rules := rule.NewRegistry(rule.RegistryParams{DB: db, Repository: rule.NewRepository(db), Generator: gen})
	contracts := contract.NewRegistry(contract.Params{DB: db, Validator: validator})
	levels := level.NewTracker(level.Params{DB: db})
	agg := stats.NewAggregator(ledger, rules, contracts, stats.Options{Now: clock.Now})
	pub := &recordingPublisher{}

	d := NewDispatcher(Params{
		DB:        db,
		Ledger:    ledger,
		Rules:     rules,
		Contracts: contracts,
		Levels:    levels,
		Stats:     agg,
		Validator: validator,
		Publisher: pub,
		Logger:    zap.NewNop(),
		Clock:     clock.Now,
	})
	return &fixture{d: d, clock: clock, pub: pub}
}

func (f *fixture) instantiate(t *testing.T, cfg domain.IncentiveConfig) {
	t.Helper()
	_, err := f.d.Instantiate(context.Background(), admin, InstantiateMsg{Config: cfg})
	require.NoError(t, err)
}

func (f *fixture) exec(t *testing.T, caller string, msg ExecuteMsg) *Response {
	t.Helper()
	resp, err := f.d.Execute(context.Background(), caller, msg)
	require.NoError(t, err)
	return resp
}

func (f *fixture) rewards(t *testing.T, user string) []*reward.Reward {
	t.Helper()
	out, err := f.d.Query(context.Background(), QueryMsg{UserRewards: &UserQuery{User: user}})
	require.NoError(t, err)
	return out.([]*reward.Reward)
}

func distributeMsg(user string, amount int64) ExecuteMsg {
	return ExecuteMsg{DistributeReward: &DistributeReward{
		User:         user,
		Amount:       decimal.NewFromInt(amount),
		ActivityType: domain.Activity{Referral: &domain.Referral{Referrer: "u0"}},
	}}
}

func attrs(r *Response) [][2]string {
	out := make([][2]string, 0, len(r.Attributes))
	for _, a := range r.Attributes {
		out = append(out, [2]string{a.Key, a.Value})
	}
	return out
}

func TestInstantiate_DefaultsAdminToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.d.Instantiate(ctx, admin, InstantiateMsg{Config: domain.IncentiveConfig{MaxRewardsPerUser: 10}})
	require.NoError(t, err)
	require.Equal(t, "instantiate", resp.Attributes[0].Value)
	v, _ := resp.Attr("admin")
	require.Equal(t, admin, v)

	got, err := f.d.Admin(ctx)
	require.NoError(t, err)
	require.Equal(t, admin, got)

	cfg, err := f.d.Query(ctx, QueryMsg{Config: &Empty{}})
	require.NoError(t, err)
	require.Equal(t, uint32(10), cfg.(domain.IncentiveConfig).MaxRewardsPerUser)
}

func TestInstantiate_ExplicitAdmin(t *testing.T) {
	f := newFixture(t)
	other := "operator"

	_, err := f.d.Instantiate(context.Background(), "deployer", InstantiateMsg{Admin: &other})
	require.NoError(t, err)

	_, err = f.d.Execute(context.Background(), "deployer", distributeMsg("u1", 1))
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	f.exec(t, other, distributeMsg("u1", 1))
}

func TestInstantiate_Twice(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})

	_, err := f.d.Instantiate(context.Background(), admin, InstantiateMsg{})
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)
}

func TestExecute_BeforeInstantiate(t *testing.T) {
	f := newFixture(t)

	_, err := f.d.Execute(context.Background(), admin, distributeMsg("u1", 1))
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)
}

func TestExecute_RejectsAmbiguousMessage(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})

	_, err := f.d.Execute(context.Background(), admin, ExecuteMsg{})
	require.ErrorIs(t, err, domain.ErrInvalidMessage)

	msg := distributeMsg("u1", 1)
	msg.DeleteRule = &DeleteRule{RuleID: "rule_0"}
	_, err = f.d.Execute(context.Background(), admin, msg)
	require.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestExecute_NonAdminIsRejectedWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})
	ctx := context.Background()

	cmds := []ExecuteMsg{
		distributeMsg("u1", 500),
		{MintForPoints: &MintForPoints{User: "u1", PointsAmount: decimal.NewFromInt(1000)}},
		{CreateRule: &CreateRule{Rule: rule.Rule{RuleName: "r", RuleType: domain.RuleTypeCustom}}},
		{DeleteRule: &DeleteRule{RuleID: "rule_0"}},
		{RegisterContract: &RegisterContract{ContractType: domain.ContractTypeFt, ContractAddr: "ft"}},
		{UpdateUserLevel: &UpdateUserLevel{User: "u1", Points: 10}},
		{UpdateConfig: &UpdateConfig{}},
		{ExpireRewards: &ExpireRewards{}},
	}
	for _, cmd := range cmds {
		_, err := f.d.Execute(ctx, "mallory", cmd)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	}

	require.Empty(t, f.rewards(t, "u1"))
	s, err := f.d.Query(ctx, QueryMsg{SystemStats: &Empty{}})
	require.NoError(t, err)
	require.Zero(t, s.(*stats.SystemStats).TotalRules)
	require.Equal(t, []string{"instantiate"}, f.pub.methods())
}

func TestExecute_EndToEndClaim(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})

	resp := f.exec(t, admin, distributeMsg("u1", 500))
	require.Equal(t, [][2]string{
		{"method", "distribute_reward"},
		{"user", "u1"},
		{"reward_id", "reward_0"},
		{"amount", "500"},
	}, attrs(resp))

	list := f.rewards(t, "u1")
	require.Len(t, list, 1)
	require.Equal(t, domain.RewardStatusPending, list[0].Status)
	require.True(t, list[0].Amount.Equal(decimal.NewFromInt(500)))
	require.Nil(t, list[0].ClaimedAt)

	f.clock.Advance(time.Minute)
	resp = f.exec(t, "u1", ExecuteMsg{ClaimReward: &ClaimReward{RewardID: "reward_0"}})
	require.Equal(t, [][2]string{
		{"method", "claim_reward"},
		{"reward_id", "reward_0"},
		{"user", "u1"},
	}, attrs(resp))

	list = f.rewards(t, "u1")
	require.Equal(t, domain.RewardStatusClaimed, list[0].Status)
	require.NotNil(t, list[0].ClaimedAt)
	require.True(t, list[0].ClaimedAt.Equal(t0.Add(time.Minute)))

	_, err := f.d.Execute(context.Background(), "u1", ExecuteMsg{ClaimReward: &ClaimReward{RewardID: "reward_0"}})
	require.ErrorIs(t, err, domain.ErrRewardAlreadyClaimed)

	require.Equal(t, []string{"instantiate", "distribute_reward", "claim_reward"}, f.pub.methods())
}

func TestExecute_ClaimIsScopedToCaller(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})
	f.exec(t, admin, distributeMsg("u1", 10))

	_, err := f.d.Execute(context.Background(), "u2", ExecuteMsg{ClaimReward: &ClaimReward{RewardID: "reward_0"}})
	require.ErrorIs(t, err, domain.ErrRewardNotFound)
}

func TestExecute_ExpiredRewardCannotBeClaimed(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{RewardExpirationDays: 1})
	f.exec(t, admin, distributeMsg("u1", 10))
	f.exec(t, admin, distributeMsg("u1", 20))

	f.clock.Advance(48 * time.Hour)
	_, err := f.d.Execute(context.Background(), "u1", ExecuteMsg{ClaimReward: &ClaimReward{RewardID: "reward_0"}})
	require.ErrorIs(t, err, domain.ErrRewardExpired)

	resp := f.exec(t, admin, ExecuteMsg{ExpireRewards: &ExpireRewards{}})
	n, _ := resp.Attr("expired")
	require.Equal(t, "2", n)

	for _, r := range f.rewards(t, "u1") {
		require.Equal(t, domain.RewardStatusExpired, r.Status)
	}
}

func TestExecute_MintForPointsThreshold(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})

	_, err := f.d.Execute(context.Background(), admin, ExecuteMsg{MintForPoints: &MintForPoints{User: "u1", PointsAmount: decimal.NewFromInt(999)}})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	resp := f.exec(t, admin, ExecuteMsg{MintForPoints: &MintForPoints{User: "u1", PointsAmount: decimal.NewFromInt(1000)}})
	require.Equal(t, [][2]string{
		{"method", "mint_for_points"},
		{"user", "u1"},
		{"points_amount", "1000"},
		{"reward_id", "reward_0"},
	}, attrs(resp))

	list := f.rewards(t, "u1")
	require.Len(t, list, 1)
	require.Equal(t, domain.RewardTypeToken, list[0].RewardType)
	require.Equal(t, domain.NewCustomActivity(domain.PointsExchangeActivityID), list[0].ActivityType)
}

func TestExecute_FailedCommandDoesNotConsumeID(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{MaxRewardsPerUser: 1})

	f.exec(t, admin, distributeMsg("u1", 1))
	_, err := f.d.Execute(context.Background(), admin, distributeMsg("u1", 1))
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)

	resp := f.exec(t, admin, distributeMsg("u2", 1))
	id, _ := resp.Attr("reward_id")
	require.Equal(t, "reward_1", id)
}

func TestExecute_RuleLifecycle(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})
	ctx := context.Background()

	in := rule.Rule{
		RuleID:   "ignored",
		RuleName: "referral bonus",
		RuleType: domain.RuleTypeActivityBased,
		Conditions: []rule.Condition{
			{ConditionType: domain.ConditionActivityType, Operator: domain.OperatorEquals, Value: "referral"},
		},
		Enabled: true,
	}
	resp := f.exec(t, admin, ExecuteMsg{CreateRule: &CreateRule{Rule: in}})
	id, _ := resp.Attr("rule_id")
	require.Equal(t, "rule_0", id)

	out, err := f.d.Query(ctx, QueryMsg{Rules: &Empty{}})
	require.NoError(t, err)
	list := out.([]*rule.Rule)
	require.Len(t, list, 1)
	require.True(t, list[0].CreatedAt.Equal(list[0].UpdatedAt))

	f.clock.Advance(time.Hour)
	in.RuleName = "referral bonus v2"
	f.exec(t, admin, ExecuteMsg{UpdateRule: &UpdateRule{RuleID: id, Rule: in}})

	out, err = f.d.Query(ctx, QueryMsg{Rule: &RuleQuery{RuleID: id}})
	require.NoError(t, err)
	got := out.(*rule.Rule)
	require.Equal(t, id, got.RuleID)
	require.Equal(t, "referral bonus v2", got.RuleName)
	require.True(t, got.UpdatedAt.After(got.CreatedAt))

	f.exec(t, admin, ExecuteMsg{DeleteRule: &DeleteRule{RuleID: id}})
	f.exec(t, admin, ExecuteMsg{DeleteRule: &DeleteRule{RuleID: id}})

	_, err = f.d.Query(ctx, QueryMsg{Rule: &RuleQuery{RuleID: id}})
	require.ErrorIs(t, err, domain.ErrRuleNotFound)
}

func TestExecute_UncompilableRuleIsStored(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})

	resp := f.exec(t, admin, ExecuteMsg{CreateRule: &CreateRule{Rule: rule.Rule{
		RuleName: "loose",
		RuleType: domain.RuleTypeCustom,
		Conditions: []rule.Condition{
			{ConditionType: domain.ConditionAmount, Operator: domain.OperatorGreaterThan, Value: "lots"},
		},
	}}})
	id, _ := resp.Attr("rule_id")

	out, err := f.d.Query(context.Background(), QueryMsg{Rule: &RuleQuery{RuleID: id}})
	require.NoError(t, err)
	require.Empty(t, out.(*rule.Rule).Expression)
}

func TestExecute_CreateRuleAfterUpsertOfUnissuedID(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})

	in := rule.Rule{RuleName: "placed", RuleType: domain.RuleTypeActivityBased}
	f.exec(t, admin, ExecuteMsg{UpdateRule: &UpdateRule{RuleID: "rule_0", Rule: in}})

	for _, want := range []string{"rule_1", "rule_2", "rule_3"} {
		resp := f.exec(t, admin, ExecuteMsg{CreateRule: &CreateRule{Rule: in}})
		id, _ := resp.Attr("rule_id")
		require.Equal(t, want, id)
	}
}

func TestExecute_RegisterContractLastWriteWins(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})
	ctx := context.Background()

	f.exec(t, admin, ExecuteMsg{RegisterContract: &RegisterContract{ContractType: domain.ContractTypeFt, ContractAddr: "ft1"}})
	resp := f.exec(t, admin, ExecuteMsg{RegisterContract: &RegisterContract{ContractType: domain.ContractTypeFt, ContractAddr: "ft2"}})
	ct, _ := resp.Attr("contract_type")
	require.Equal(t, domain.ContractTypeFt.String(), ct)

	out, err := f.d.Query(ctx, QueryMsg{Contracts: &Empty{}})
	require.NoError(t, err)
	list := out.([]*contract.Registration)
	require.Len(t, list, 1)
	require.Equal(t, "ft2", list[0].ContractAddr)

	f.exec(t, admin, ExecuteMsg{UpdateContractStatus: &UpdateContractStatus{ContractType: domain.ContractTypeFt, Status: domain.ContractStatusSuspended}})
	_, err = f.d.Execute(ctx, admin, ExecuteMsg{UpdateContractStatus: &UpdateContractStatus{ContractType: domain.ContractTypeNft, Status: domain.ContractStatusSuspended}})
	require.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestExecute_UserLevel(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})
	ctx := context.Background()

	_, err := f.d.Query(ctx, QueryMsg{UserLevel: &UserQuery{User: "u1"}})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	resp := f.exec(t, admin, ExecuteMsg{UpdateUserLevel: &UpdateUserLevel{User: "u1", Points: 250}})
	p, _ := resp.Attr("points")
	require.Equal(t, "250", p)

	f.exec(t, admin, ExecuteMsg{SetUserLevel: &SetUserLevel{User: "u1", Level: domain.LevelGold}})

	out, err := f.d.Query(ctx, QueryMsg{UserLevel: &UserQuery{User: "u1"}})
	require.NoError(t, err)
	info := out.(*level.Info)
	require.Equal(t, domain.LevelGold, info.Level)
	require.Equal(t, uint32(250), info.Points)
	require.Equal(t, uint32(1), info.LevelUpCount)
}

func TestExecute_UpdateConfigAppliesToLaterCommands(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})

	resp := f.exec(t, admin, ExecuteMsg{UpdateConfig: &UpdateConfig{Config: domain.IncentiveConfig{MaxRewardsPerUser: 1}}})
	require.Len(t, resp.Attributes, 1)

	f.exec(t, admin, distributeMsg("u1", 1))
	_, err := f.d.Execute(context.Background(), admin, distributeMsg("u1", 1))
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)
}

func TestExecute_CancelReward(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})
	f.exec(t, admin, distributeMsg("u1", 1))

	f.exec(t, admin, ExecuteMsg{CancelReward: &CancelReward{User: "u1", RewardID: "reward_0"}})

	_, err := f.d.Execute(context.Background(), "u1", ExecuteMsg{ClaimReward: &ClaimReward{RewardID: "reward_0"}})
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)
}

func TestQuery_SystemStats(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})

	f.exec(t, admin, distributeMsg("u1", 100))
	f.exec(t, admin, distributeMsg("u1", 200))
	f.exec(t, admin, distributeMsg("u2", 50))
	f.exec(t, "u1", ExecuteMsg{ClaimReward: &ClaimReward{RewardID: "reward_0"}})
	f.exec(t, admin, ExecuteMsg{CreateRule: &CreateRule{Rule: rule.Rule{RuleName: "r", RuleType: domain.RuleTypeCustom}}})
	f.exec(t, admin, ExecuteMsg{RegisterContract: &RegisterContract{ContractType: domain.CustomContractType("vault"), ContractAddr: "vault1"}})

	out, err := f.d.Query(context.Background(), QueryMsg{SystemStats: &Empty{}})
	require.NoError(t, err)
	s := out.(*stats.SystemStats)
	require.Equal(t, uint32(2), s.TotalUsers)
	require.True(t, s.TotalRewardsDistributed.Equal(decimal.NewFromInt(350)))
	require.Equal(t, uint32(1), s.TotalRules)
	require.Equal(t, uint32(1), s.TotalContracts)
	require.True(t, s.LastUpdated.Equal(t0))
}

func TestExecuteMsg_JSON(t *testing.T) {
	raw := `{"distribute_reward":{"user":"u1","amount":"500","activity_type":{"referral":{"referrer":"u0"}}}}`

	var msg ExecuteMsg
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	method, err := msg.Method()
	require.NoError(t, err)
	require.Equal(t, MethodDistributeReward, method)
	require.Equal(t, "u0", msg.DistributeReward.ActivityType.Referral.Referrer)
	require.True(t, msg.DistributeReward.Amount.Equal(decimal.NewFromInt(500)))

	var q QueryMsg
	require.NoError(t, json.Unmarshal([]byte(`{"user_rewards":{"user":"u1"}}`), &q))
	name, err := q.name()
	require.NoError(t, err)
	require.Equal(t, "user_rewards", name)
}

func TestQuery_EmptyUserMatchesNobody(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})
	ctx := context.Background()

	f.exec(t, admin, distributeMsg("u1", 10))
	f.exec(t, admin, ExecuteMsg{UpdateUserLevel: &UpdateUserLevel{User: "u1", Points: 5}})

	require.Empty(t, f.rewards(t, ""))

	_, err := f.d.Query(ctx, QueryMsg{UserLevel: &UserQuery{User: ""}})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestQuery_RewardAndContract(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t, domain.IncentiveConfig{})
	ctx := context.Background()

	resp := f.exec(t, admin, distributeMsg("u1", 10))
	id, _ := resp.Attr("reward_id")
	f.exec(t, admin, ExecuteMsg{RegisterContract: &RegisterContract{ContractType: domain.ContractTypeNft, ContractAddr: "nft1"}})

	out, err := f.d.Query(ctx, QueryMsg{Reward: &RewardQuery{RewardID: id}})
	require.NoError(t, err)
	require.Equal(t, "u1", out.(*reward.Reward).User)

	_, err = f.d.Query(ctx, QueryMsg{Reward: &RewardQuery{RewardID: "reward_99"}})
	require.ErrorIs(t, err, domain.ErrRewardNotFound)

	out, err = f.d.Query(ctx, QueryMsg{Contract: &ContractQuery{ContractType: domain.ContractTypeNft}})
	require.NoError(t, err)
	require.Equal(t, "nft1", out.(*contract.Registration).ContractAddr)

	_, err = f.d.Query(ctx, QueryMsg{Contract: &ContractQuery{ContractType: domain.ContractTypeFt}})
	require.ErrorIs(t, err, domain.ErrContractNotFound)

	var msg QueryMsg
	require.NoError(t, json.Unmarshal([]byte(`{"contract":{"contract_type":"nft"}}`), &msg))
	require.Equal(t, domain.ContractTypeNft, msg.Contract.ContractType)
}
