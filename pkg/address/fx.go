package address

import (
	"luckee-incentive/pkg/config"

	"go.uber.org/fx"
)

var Module = fx.Module("address",
	fx.Provide(FromConfig),
)

// FromConfig builds the validator for INCENTIVE.ADDRESS_PREFIX.
func FromConfig(cfg *config.Config) *Validator {
	return NewValidator(cfg.Incentive.AddressPrefix)
}
