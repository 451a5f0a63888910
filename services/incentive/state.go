package incentive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	settingAdmin  = "admin"
	settingConfig = "config"
)

// Setting is one named singleton value of the incentive core.
type Setting struct {
	Name      string         `gorm:"column:name;primaryKey"`
	Value     datatypes.JSON `gorm:"column:value"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (Setting) TableName() string { return "settings" }

type State struct {
	Admin  string
	Config domain.IncentiveConfig
}

type settingStore struct {
	repo repository.Repository[Setting]
}

// load returns nil when the core has not been instantiated.
func (s settingStore) load(ctx context.Context, tx *gorm.DB) (*State, error) {
	repo := s.repo.WithTrx(tx)

	admin, err := repo.FindOne(ctx, &Setting{Name: settingAdmin})
	if err != nil {
		return nil, domain.SystemError(err)
	}
	if admin == nil {
		return nil, nil
	}
	cfg, err := repo.FindOne(ctx, &Setting{Name: settingConfig})
	if err != nil {
		return nil, domain.SystemError(err)
	}
	if cfg == nil {
		return nil, domain.SystemError(fmt.Errorf("setting %q missing", settingConfig))
	}

	st := &State{}
	if err := json.Unmarshal(admin.Value, &st.Admin); err != nil {
		return nil, domain.SystemError(err)
	}
	if err := json.Unmarshal(cfg.Value, &st.Config); err != nil {
		return nil, domain.SystemError(err)
	}
	return st, nil
}

func (s settingStore) save(ctx context.Context, tx *gorm.DB, name string, v any, now time.Time) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return domain.SystemError(err)
	}
	if err := s.repo.WithTrx(tx).Save(ctx, &Setting{Name: name, Value: raw, UpdatedAt: now}); err != nil {
		return domain.SystemError(err)
	}
	return nil
}
