package stats

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"luckee-incentive/pkg/domain"
	"luckee-incentive/services/reward"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// SystemStats is the operator summary computed from the live stores.
type SystemStats struct {
	TotalUsers              uint32          `json:"total_users"`
	TotalRewardsDistributed decimal.Decimal `json:"total_rewards_distributed"`
	TotalRules              uint32          `json:"total_rules"`
	TotalContracts          uint32          `json:"total_contracts"`
	LastUpdated             time.Time       `json:"last_updated"`
}

type RewardSource interface {
	Totals(ctx context.Context) (reward.Totals, error)
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Cache stores encoded snapshots. Get reports a miss with ok == false.
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type Aggregator struct {
	rewards   RewardSource
	rules     Counter
	contracts Counter
	cache     Cache
	key       string
	ttl       time.Duration
	now       func() time.Time
	group     singleflight.Group
	logger    *zap.Logger

	// generation is bumped by Invalidate; a compute that straddles a bump is not cached
	generation atomic.Uint64
}

type Options struct {
	Cache  Cache
	Key    string
	TTL    time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

func NewAggregator(rewards RewardSource, rules, contracts Counter, opts Options) *Aggregator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Key == "" {
		opts.Key = "incentive:stats:default"
	}
	return &Aggregator{
		rewards:   rewards,
		rules:     rules,
		contracts: contracts,
		cache:     opts.Cache,
		key:       opts.Key,
		ttl:       opts.TTL,
		now:       opts.Now,
		logger:    opts.Logger.Named("stats"),
	}
}

// Snapshot returns the cached stats when fresh, otherwise computes them. Concurrent misses of the
// same generation share one computation.
func (a *Aggregator) Snapshot(ctx context.Context) (*SystemStats, error) {
	gen := a.generation.Load()
	if cached, ok := a.fromCache(ctx); ok {
		return cached, nil
	}

	v, err, _ := a.group.Do(a.key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		s, err := a.compute(ctx)
		if err != nil {
			return nil, err
		}
		if a.generation.Load() == gen {
			a.toCache(ctx, s)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}

	s := *v.(*SystemStats)
	return &s, nil
}

// Invalidate drops the cached snapshot. Errors are logged only.
func (a *Aggregator) Invalidate(ctx context.Context) {
	a.generation.Add(1)
	if a.cache == nil {
		return
	}
	if err := a.cache.Del(ctx, a.key); err != nil {
		a.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

func (a *Aggregator) compute(ctx context.Context) (*SystemStats, error) {
	var (
		totals    reward.Totals
		rules     int64
		contracts int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = a.rewards.Totals(gctx)
		return err
	})
	g.Go(func() (err error) {
		rules, err = a.rules.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		contracts, err = a.contracts.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.SystemError(err)
	}

	return &SystemStats{
		TotalUsers:              uint32(totals.Users),
		TotalRewardsDistributed: totals.Amount,
		TotalRules:              uint32(rules),
		TotalContracts:          uint32(contracts),
		LastUpdated:             a.now().UTC(),
	}, nil
}

func (a *Aggregator) fromCache(ctx context.Context) (*SystemStats, bool) {
	if a.cache == nil || a.ttl <= 0 {
		return nil, false
	}
	raw, ok, err := a.cache.Get(ctx, a.key)
	if err != nil {
		a.logger.Warn("failed to read stats cache", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var s SystemStats
	if err := json.Unmarshal(raw, &s); err != nil {
		a.logger.Warn("dropping undecodable stats cache entry", zap.Error(err))
		return nil, false
	}
	return &s, true
}

func (a *Aggregator) toCache(ctx context.Context, s *SystemStats) {
	if a.cache == nil || a.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		a.logger.Warn("failed to encode stats", zap.Error(err))
		return
	}
	if err := a.cache.Set(ctx, a.key, raw, a.ttl); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("failed to write stats cache", zap.Error(err))
	}
}
