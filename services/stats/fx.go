package stats

import (
	"luckee-incentive/pkg/config"
	"luckee-incentive/pkg/rediskey"
	"luckee-incentive/services/contract"
	"luckee-incentive/services/reward"
	"luckee-incentive/services/rule"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("stats.aggregator",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Config    *config.Config
	Redis     *redis.Client `optional:"true"`
	Ledger    *reward.Ledger
	Rules     *rule.Registry
	Contracts *contract.Registry
	Logger    *zap.Logger
}

func New(p Params) *Aggregator {
	opts := Options{
		Key:    rediskey.BuildStatsKey(p.Config.AppNamespace),
		TTL:    p.Config.Stats.CacheTTL,
		Logger: p.Logger,
	}
	if p.Redis != nil {
		opts.Cache = NewRedisCache(p.Redis)
	}
	return NewAggregator(p.Ledger, p.Rules, p.Contracts, opts)
}
