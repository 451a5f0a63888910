package contract

import "go.uber.org/fx"

var Module = fx.Module("contract.registry",
	fx.Provide(NewRegistry),
)
