package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRewardNotFound       = errors.New("reward not found")
	ErrRuleNotFound         = errors.New("rule not found")
	ErrContractNotFound     = errors.New("contract not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrRewardAlreadyClaimed = errors.New("reward already claimed")
	ErrRewardExpired        = errors.New("reward expired")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrOperationNotAllowed  = errors.New("operation not allowed")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrSystem               = errors.New("system error")
)

// SystemError wraps a storage or infrastructure failure so callers can match it with ErrSystem
// while keeping the underlying cause.
func SystemError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSystem) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSystem, err)
}
