package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"luckee-incentive/pkg/config"
	"luckee-incentive/pkg/domain"
	"luckee-incentive/services/expiry"
	"luckee-incentive/services/incentive"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Instantiator interface {
	Instantiate(ctx context.Context, caller string, msg incentive.InstantiateMsg) (*incentive.Response, error)
}

type Service struct {
	db           *gorm.DB
	config       *config.Config
	instantiator Instantiator
}

type ServiceParams struct {
	fx.In
	DB         *gorm.DB
	Config     *config.Config
	Dispatcher *incentive.Dispatcher
}

func NewService(p ServiceParams) *Service {
	return newService(p.DB, p.Config, p.Dispatcher)
}

func newService(db *gorm.DB, cfg *config.Config, inst Instantiator) *Service {
	return &Service{db: db, config: cfg, instantiator: inst}
}

// Run migrates every table and, when INCENTIVE.ADMIN is set, instantiates the core once.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Migrate(); err != nil {
		return err
	}
	return s.Instantiate(ctx)
}

func (s *Service) Migrate() error {
	models := append(incentive.Models(), &expiry.Job{})
	if err := s.db.AutoMigrate(models...); err != nil {
		zap.L().Error("[bootstrap] Failed to migrate", zap.Error(err))
		return fmt.Errorf("migrate: %w", err)
	}
	zap.L().Info("[bootstrap] Schema migrated", zap.Int("tables", len(models)))
	return nil
}

func (s *Service) Instantiate(ctx context.Context) error {
	inc := s.config.Incentive
	if inc.Admin == "" {
		zap.L().Info("[bootstrap] INCENTIVE.ADMIN not set. Skipping instantiate.")
		return nil
	}

	_, err := s.instantiator.Instantiate(ctx, inc.Admin, incentive.InstantiateMsg{Config: inc.Config})
	switch {
	case errors.Is(err, domain.ErrOperationNotAllowed):
		zap.L().Info("[bootstrap] Incentive core already instantiated")
		return nil
	case err != nil:
		zap.L().Error("[bootstrap] Failed to instantiate", zap.Error(err))
		return err
	}

	zap.L().Info("[bootstrap] Incentive core instantiated", zap.String("admin", inc.Admin))
	return nil
}
