package contract

import (
	"context"
	"fmt"
	"time"

	"luckee-incentive/pkg/address"
	"luckee-incentive/pkg/db/option"
	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/repository"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Registry struct {
	db        *gorm.DB
	store     repository.Repository[Registration]
	validator *address.Validator
	logger    *zap.Logger
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Validator *address.Validator
	Logger    *zap.Logger `optional:"true"`
}

func NewRegistry(p Params) *Registry {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := p.Validator
	if validator == nil {
		validator = address.NewValidator("")
	}
	return &Registry{
		db:        p.DB,
		store:     repository.ProvideStore[Registration](p.DB),
		validator: validator,
		logger:    logger.Named("contract"),
	}
}

// Register records contractType at addr as Active with no capabilities. An existing registration
// of the same type is overwritten.
func (r *Registry) Register(ctx context.Context, tx *gorm.DB, contractType domain.ContractType, addr string, now time.Time) (*Registration, error) {
	if err := contractType.Validate(); err != nil {
		return nil, err
	}
	normalized, err := r.validator.Validate(addr)
	if err != nil {
		return nil, err
	}

	reg := &Registration{
		TypeKey:      contractType.KeyHex(),
		ContractType: contractType,
		ContractAddr: normalized,
		Status:       domain.ContractStatusActive,
		Capabilities: []string{},
		RegisteredAt: now.UTC(),
	}
	if err := r.store.WithTrx(tx).Save(ctx, reg); err != nil {
		return nil, domain.SystemError(err)
	}

	r.logger.Debug("contract registered", zap.Stringer("contract_type", contractType), zap.String("contract_addr", normalized))
	return reg, nil
}

// UpdateStatus changes the status of an existing registration.
func (r *Registry) UpdateStatus(ctx context.Context, tx *gorm.DB, contractType domain.ContractType, status domain.ContractStatus) (*Registration, error) {
	if err := contractType.Validate(); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown contract status %q", domain.ErrInvalidMessage, status)
	}

	store := r.store.WithTrx(tx)
	reg, err := store.FindOne(ctx, nil, option.Equal("type_key", contractType.KeyHex()), option.WithLockingUpdate())
	if err != nil {
		return nil, domain.SystemError(err)
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrContractNotFound, contractType)
	}

	if err := store.Update(ctx, reg.TypeKey, map[string]any{"status": status}); err != nil {
		return nil, domain.SystemError(err)
	}
	reg.Status = status
	return reg, nil
}

// Get returns the registration of contractType or domain.ErrContractNotFound.
func (r *Registry) Get(ctx context.Context, contractType domain.ContractType) (*Registration, error) {
	if err := contractType.Validate(); err != nil {
		return nil, err
	}
	reg, err := r.store.FindOne(ctx, nil, option.Equal("type_key", contractType.KeyHex()))
	if err != nil {
		return nil, domain.SystemError(err)
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrContractNotFound, contractType)
	}
	return reg, nil
}

// List returns registrations in ascending key order.
func (r *Registry) List(ctx context.Context) ([]*Registration, error) {
	regs, err := r.store.Find(ctx, nil, option.WithSortBy(option.QuerySortBy{
		SortBy:  "type_key",
		OrderBy: "asc",
		Allow:   map[string]bool{"type_key": true},
	}))
	if err != nil {
		return nil, domain.SystemError(err)
	}
	return regs, nil
}

func (r *Registry) Count(ctx context.Context) (int64, error) {
	n, err := r.store.Count(ctx, nil)
	if err != nil {
		return 0, domain.SystemError(err)
	}
	return n, nil
}
