package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"luckee-incentive/services/testutil"
)

func TestGenerator_NextIsMonotonicPerNamespace(t *testing.T) {
	db := testutil.NewTestDB(t, &Counter{})
	gen := NewGenerator()
	ctx := context.Background()

	for i, want := range []string{"reward_0", "reward_1", "reward_2"} {
		id, err := gen.Next(ctx, db, NamespaceReward)
		require.NoError(t, err)
		require.Equal(t, want, id.String(), "call %d", i)
	}

	id, err := gen.Next(ctx, db, NamespaceRule)
	require.NoError(t, err)
	require.Equal(t, "rule_0", id.String())
}

func TestGenerator_RollbackDoesNotConsume(t *testing.T) {
	db := testutil.NewTestDB(t, &Counter{})
	gen := NewGenerator()
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		id, err := gen.Next(ctx, tx, NamespaceReward)
		require.NoError(t, err)
		require.Equal(t, uint64(0), id.Value)
		return boom
	})
	require.ErrorIs(t, err, boom)

	id, err := gen.Next(ctx, db, NamespaceReward)
	require.NoError(t, err)
	require.Equal(t, "reward_0", id.String())
}

func TestGenerator_EmptyNamespace(t *testing.T) {
	db := testutil.NewTestDB(t, &Counter{})
	_, err := NewGenerator().Next(context.Background(), db, "")
	require.Error(t, err)
}
