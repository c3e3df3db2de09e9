package stream

import (
	"context"

	"go.uber.org/fx"

	"github.com/soletrea/atelier/internal/config"
)

const serviceName = "atelier"

// Module exposes the event publisher to the fx graph.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Invoke(registerLifecycle),
)

func newPublisher(cfg *config.Config) Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg.KafkaBrokers, cfg.OutboxTopic, serviceName)
}

func registerLifecycle(lc fx.Lifecycle, publisher Publisher) {
	kp, ok := publisher.(*KafkaPublisher)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return kp.Close()
		},
	})
}
