package bootstrap

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("bootstrap",
	fx.Provide(NewService),
	fx.Invoke(registerHooks),
)

// registerHooks migrates and instantiates before the servers start accepting commands.
func registerHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.StartHook(func(ctx context.Context) error {
		return svc.Run(ctx)
	}))
}
