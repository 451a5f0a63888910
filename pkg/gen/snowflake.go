package gen

import (
	"fmt"

	"luckee-incentive/pkg/config"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake",
	fx.Provide(NewSnowflakeNode),
)

// NewSnowflakeNode builds the row id generator for SNOWFLAKE.NODE. Every replica needs its own node.
func NewSnowflakeNode(cfg *config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.Snowflake.Node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.Snowflake.Node, err)
	}
	return node, nil
}
