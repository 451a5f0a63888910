package level

import "go.uber.org/fx"

var Module = fx.Module("level.tracker",
	fx.Provide(NewTracker),
)
