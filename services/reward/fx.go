package reward

import "go.uber.org/fx"

var Module = fx.Module("reward.ledger",
	fx.Provide(NewLedger),
)
