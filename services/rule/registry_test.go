package rule

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/sequence"
	"luckee-incentive/services/testutil"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Rule{}, &sequence.Counter{})
	reg := NewRegistry(RegistryParams{
		DB:         db,
		Repository: NewRepository(db),
		Generator:  sequence.NewGenerator(),
		Logger:     zap.NewNop(),
	})
	return reg, db
}

func sampleRule(name string) Rule {
	return Rule{
		RuleID:   "client-supplied",
		RuleName: name,
		RuleType: domain.RuleTypeActivityBased,
		Conditions: []Condition{
			{ConditionType: domain.ConditionActivityType, Operator: domain.OperatorEquals, Value: "referral"},
			{ConditionType: domain.ConditionAmount, Operator: domain.OperatorGreaterThan, Value: "100"},
		},
		Rewards: []RewardDefinition{
			{RewardType: domain.RewardTypeToken, Amount: decimal.NewFromInt(50), Multiplier: decimal.RequireFromString("1.5")},
		},
		Enabled: true,
	}
}

func TestRegistry_CreateAssignsIDAndTimestamps(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.Create(ctx, nil, sampleRule("referral bonus"), t0)
	require.NoError(t, err)
	require.Equal(t, "rule_0", created.RuleID)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)
	require.Equal(t, `(activity_type == "referral") && (amount > 100.0)`, created.Expression)

	got, err := reg.Get(ctx, "rule_0")
	require.NoError(t, err)
	require.Equal(t, "referral bonus", got.RuleName)
	require.Len(t, got.Conditions, 2)
	require.Len(t, got.Rewards, 1)
	require.True(t, got.Rewards[0].Multiplier.Equal(decimal.RequireFromString("1.5")))
	require.True(t, got.CreatedAt.Equal(got.UpdatedAt))

	_, err = reg.Get(ctx, "client-supplied")
	require.ErrorIs(t, err, domain.ErrRuleNotFound)
}

func TestRegistry_UpdatePreservesIDAndCreatedAt(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.Create(ctx, nil, sampleRule("v1"), t0)
	require.NoError(t, err)

	later := t0.Add(time.Hour)
	updated, err := reg.Update(ctx, nil, created.RuleID, sampleRule("v2"), later)
	require.NoError(t, err)
	require.Equal(t, created.RuleID, updated.RuleID)
	require.Equal(t, later, updated.UpdatedAt)

	got, err := reg.Get(ctx, created.RuleID)
	require.NoError(t, err)
	require.Equal(t, "v2", got.RuleName)
	require.True(t, got.CreatedAt.Equal(t0))
	require.True(t, got.UpdatedAt.Equal(later))

	n, err := reg.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestRegistry_UpdateUpsertsMissingRule(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Update(ctx, nil, "rule_42", sampleRule("fresh"), t0)
	require.NoError(t, err)

	got, err := reg.Get(ctx, "rule_42")
	require.NoError(t, err)
	require.Equal(t, "fresh", got.RuleName)
}

func TestRegistry_DeleteIsIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.Create(ctx, nil, sampleRule("gone"), t0)
	require.NoError(t, err)

	existed, err := reg.Delete(ctx, nil, created.RuleID)
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = reg.Delete(ctx, nil, created.RuleID)
	require.NoError(t, err)
	require.False(t, existed)

	rules, err := reg.List(ctx)
	require.NoError(t, err)
	require.Empty(t, rules)

	// ids are never reused
	next, err := reg.Create(ctx, nil, sampleRule("next"), t0)
	require.NoError(t, err)
	require.Equal(t, "rule_1", next.RuleID)
}

func TestRegistry_ListInCreationOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := reg.Create(ctx, nil, sampleRule("r"), t0)
		require.NoError(t, err)
	}

	rules, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 12)
	require.Equal(t, "rule_0", rules[0].RuleID)
	require.Equal(t, "rule_2", rules[2].RuleID)
	require.Equal(t, "rule_10", rules[10].RuleID)
}

func TestRegistry_StoresUncompilableConditions(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	loose := sampleRule("loose")
	loose.Conditions = []Condition{
		{ConditionType: domain.ConditionActivityType, Operator: domain.OperatorGreaterThan, Value: "x"},
		{ConditionType: domain.ConditionCustom, Operator: domain.OperatorEquals, Value: "no-separator"},
	}
	created, err := reg.Create(ctx, nil, loose, t0)
	require.NoError(t, err)
	require.Equal(t, "rule_0", created.RuleID)
	require.Empty(t, created.Expression)

	got, err := reg.Get(ctx, created.RuleID)
	require.NoError(t, err)
	require.Len(t, got.Conditions, 2)
	require.Empty(t, got.Expression)
}

func TestRegistry_CreateSkipsIDsTakenByUpdate(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Update(ctx, nil, "rule_0", sampleRule("placed"), t0)
	require.NoError(t, err)

	for _, want := range []string{"rule_1", "rule_2"} {
		created, err := reg.Create(ctx, nil, sampleRule("next"), t0)
		require.NoError(t, err)
		require.Equal(t, want, created.RuleID)
	}

	placed, err := reg.Get(ctx, "rule_0")
	require.NoError(t, err)
	require.Equal(t, "placed", placed.RuleName)
}

func TestRegistry_RejectsInvalidRules(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	bad := sampleRule("bad")
	bad.Rewards[0].Amount = decimal.NewFromInt(-5)
	_, err := reg.Create(ctx, nil, bad, t0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	bad = sampleRule("bad")
	bad.RuleType = "weekly"
	_, err = reg.Create(ctx, nil, bad, t0)
	require.ErrorIs(t, err, domain.ErrInvalidMessage)

	// rejected rules consume no id
	ok, err := reg.Create(ctx, nil, sampleRule("ok"), t0)
	require.NoError(t, err)
	require.Equal(t, "rule_0", ok.RuleID)
}
