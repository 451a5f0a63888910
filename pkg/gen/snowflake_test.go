package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"luckee-incentive/pkg/config"
)

func TestNewSnowflakeNode(t *testing.T) {
	cfg := &config.Config{}
	cfg.Snowflake.Node = 7

	node, err := NewSnowflakeNode(cfg)
	require.NoError(t, err)
	require.Equal(t, int64(7), node.Generate().Node())

	cfg.Snowflake.Node = 4096
	_, err = NewSnowflakeNode(cfg)
	require.Error(t, err)
}
