package events

import (
	"context"

	"luckee-incentive/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
}

// NewPublisher returns a Kafka publisher when brokers are configured and a log publisher
// otherwise.
func NewPublisher(p Params) Publisher {
	var pub Publisher
	if k := p.Config.Kafka; k.Enabled && len(k.Brokers) > 0 {
		p.Logger.Info("publishing incentive events to kafka", zap.Strings("brokers", k.Brokers), zap.String("topic", k.Topic))
		pub = NewKafkaPublisher(NewKafkaWriter(k.Brokers, k.Topic), p.Logger)
	} else {
		pub = NewLogPublisher(p.Logger)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pub.Close()
		},
	})
	return pub
}
