package app

import (
	"os"

	"luckee-incentive/pkg/address"
	"luckee-incentive/pkg/config"
	"luckee-incentive/pkg/db"
	"luckee-incentive/pkg/events"
	"luckee-incentive/pkg/gen"
	"luckee-incentive/pkg/hashistack/secretmanager"
	"luckee-incentive/pkg/logger"
	"luckee-incentive/pkg/otelcol"
	"luckee-incentive/pkg/profiling"
	"luckee-incentive/pkg/redis"
	"luckee-incentive/pkg/sequence"
	"luckee-incentive/services/contract"
	"luckee-incentive/services/incentive"
	"luckee-incentive/services/level"
	"luckee-incentive/services/reward"
	"luckee-incentive/services/rule"
	"luckee-incentive/services/stats"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Config reads from the remote provider when REMOTE_CONFIG_PROVIDER is set and from
// config.yaml otherwise.
func Config() fx.Option {
	if _, ok := os.LookupEnv("REMOTE_CONFIG_PROVIDER"); ok {
		return config.RemoteModule
	}
	return config.Module
}

// Core is the incentive core with its ambient stack, shared by every binary.
func Core() fx.Option {
	return fx.Options(
		secretmanager.Module,
		Config(),
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		gen.Module,
		sequence.Module,
		address.Module,
		events.Module,
		reward.Module,
		rule.Module,
		contract.Module,
		level.Module,
		stats.Module,
		incentive.Module,
		FxLogger,
	)
}

// FxLogger routes fx lifecycle events to zap outside production.
var FxLogger = fx.WithLogger(func(cfg *config.Config, log *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: log.Named("fx")}
})
