package rule

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository describes database operations available for rules.
type Repository interface {
	WithTrx(tx *gorm.DB) Repository
	Create(ctx context.Context, rule *Rule) error
	GetByID(ctx context.Context, ruleID string) (*Rule, error)
	List(ctx context.Context) ([]*Rule, error)
	Upsert(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, ruleID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTrx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) Create(ctx context.Context, rule *Rule) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(rule).Error
}

// GetByID returns (nil, nil) when the rule does not exist.
func (r *gormRepository) GetByID(ctx context.Context, ruleID string) (*Rule, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var rules []Rule
	err := r.db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Limit(1).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &rules[0], nil
}

// List returns every rule in creation order.
func (r *gormRepository) List(ctx context.Context) ([]*Rule, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	rules := make([]*Rule, 0)
	err := r.db.WithContext(ctx).Model(&Rule{}).
		Order("created_at ASC").Order("seq ASC").Order("rule_id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// Upsert writes every column of rule, inserting it when rule_id is new.
func (r *gormRepository) Upsert(ctx context.Context, rule *Rule) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "rule_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"seq", "rule_name", "rule_type", "conditions", "rewards",
				"enabled", "expression", "created_at", "updated_at",
			}),
		}).
		Create(rule).Error
}

func (r *gormRepository) Delete(ctx context.Context, ruleID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, gorm.ErrInvalidDB
	}

	res := r.db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Delete(&Rule{})
	return res.RowsAffected, res.Error
}

func (r *gormRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, gorm.ErrInvalidDB
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&Rule{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
