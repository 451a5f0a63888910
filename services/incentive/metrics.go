package incentive

import (
	"errors"

	"luckee-incentive/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "incentive",
	Name:      "commands_total",
	Help:      "Commands handled by the incentive core, by method and result.",
}, []string{"method", "result"})

var results = []struct {
	err   error
	label string
}{
	{domain.ErrUnauthorized, "unauthorized"},
	{domain.ErrRewardNotFound, "reward_not_found"},
	{domain.ErrRuleNotFound, "rule_not_found"},
	{domain.ErrContractNotFound, "contract_not_found"},
	{domain.ErrUserNotFound, "user_not_found"},
	{domain.ErrInvalidAmount, "invalid_amount"},
	{domain.ErrRewardAlreadyClaimed, "reward_already_claimed"},
	{domain.ErrRewardExpired, "reward_expired"},
	{domain.ErrInvalidConfiguration, "invalid_configuration"},
	{domain.ErrOperationNotAllowed, "operation_not_allowed"},
	{domain.ErrInvalidAddress, "invalid_address"},
	{domain.ErrInvalidMessage, "invalid_message"},
	{domain.ErrSystem, "system"},
}

// resultOf maps err to a low cardinality metric label.
func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	for _, r := range results {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "unknown"
}
