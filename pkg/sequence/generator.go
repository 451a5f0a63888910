package sequence

import (
	"context"
	"errors"
	"fmt"

	"luckee-incentive/pkg/db/option"

	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var Module = fx.Module("sequence",
	fx.Provide(NewGenerator),
)

type Namespace string

const (
	NamespaceReward Namespace = "reward"
	NamespaceRule   Namespace = "rule"
)

// Counter is the persisted next value of one namespace.
type Counter struct {
	Namespace Namespace `gorm:"column:namespace;primaryKey"`
	Value     uint64    `gorm:"column:value"`
}

func (Counter) TableName() string { return "sequences" }

// ID is an issued identifier, rendered as "<namespace>_<value>".
type ID struct {
	Namespace Namespace
	Value     uint64
}

func (id ID) String() string {
	return fmt.Sprintf("%s_%d", id.Namespace, id.Value)
}

type Generator interface {
	// Next issues the next id of ns inside tx. The increment commits or rolls back with tx.
	Next(ctx context.Context, tx *gorm.DB, ns Namespace) (ID, error)
}

type dbGenerator struct{}

func NewGenerator() Generator {
	return &dbGenerator{}
}

func (g *dbGenerator) Next(ctx context.Context, tx *gorm.DB, ns Namespace) (ID, error) {
	if tx == nil {
		return ID{}, gorm.ErrInvalidDB
	}
	if ns == "" {
		return ID{}, errors.New("sequence: empty namespace")
	}

	tx = tx.WithContext(ctx)

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Counter{Namespace: ns}).Error; err != nil {
		return ID{}, err
	}

	var c Counter
	if err := tx.Scopes(option.LockingUpdate).
		Where("namespace = ?", ns).
		Take(&c).Error; err != nil {
		return ID{}, err
	}

	if err := tx.Model(&Counter{}).
		Where("namespace = ?", ns).
		Update("value", c.Value+1).Error; err != nil {
		return ID{}, err
	}

	return ID{Namespace: ns, Value: c.Value}, nil
}
