package rule

import (
	"go.uber.org/fx"
)

var Module = fx.Module("rule.registry",
	fx.Provide(
		NewRepository,
		NewRegistry,
	),
)
