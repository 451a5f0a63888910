package celengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateExpression(t *testing.T) {
	env, err := RuleEnv()
	require.NoError(t, err)

	require.NoError(t, ValidateExpression(env, `activity_type == "referral" && amount > 10.0`))
	require.Error(t, ValidateExpression(env, `amount + 1.0`), "non boolean")
	require.Error(t, ValidateExpression(env, `activity_type > 3`), "type mismatch")
	require.Error(t, ValidateExpression(env, `unknown_var == 1`))
}

func TestEvaluate(t *testing.T) {
	env, err := RuleEnv()
	require.NoError(t, err)

	ok, err := Evaluate(env, `user_level_rank >= 2 && custom["campaign"] == "spring"`, map[string]any{
		VarUserLevelRank: 3,
		VarCustom:        map[string]any{"campaign": "spring"},
	})
	require.NoError(t, err)
	require.True(t, ok)
}
