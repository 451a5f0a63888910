package rule

import (
	"context"
	"fmt"
	"time"

	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/sequence"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Registry owns rule definitions. Rules are stored metadata; their compiled expression is kept
// for inspection and never evaluated here.
type Registry struct {
	db     *gorm.DB
	repo   Repository
	seq    sequence.Generator
	logger *zap.Logger
}

// RegistryParams defines dependencies for Registry construction.
type RegistryParams struct {
	fx.In

	DB         *gorm.DB
	Repository Repository
	Generator  sequence.Generator
	Logger     *zap.Logger `optional:"true"`
}

// NewRegistry constructs a new Registry instance.
func NewRegistry(p RegistryParams) *Registry {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if p.Repository == nil {
		panic("rule registry requires repository dependency")
	}
	return &Registry{
		db:     p.DB,
		repo:   p.Repository,
		seq:    p.Generator,
		logger: logger.Named("rule"),
	}
}

func (r *Registry) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// prepare validates rule and fills its compiled expression. Conditions that do not compile are
// still stored; the rule then carries an empty expression.
func (r *Registry) prepare(rule *Rule) error {
	if !rule.RuleType.IsValid() {
		return fmt.Errorf("%w: unknown rule type %q", domain.ErrInvalidMessage, rule.RuleType)
	}
	for i, def := range rule.Rewards {
		if !def.RewardType.IsValid() {
			return fmt.Errorf("%w: reward %d: unknown reward type %q", domain.ErrInvalidMessage, i, def.RewardType)
		}
		if err := domain.ValidateAmount(def.Amount); err != nil {
			return fmt.Errorf("reward %d: %w", i, err)
		}
		if err := domain.ValidateMultiplier(def.Multiplier); err != nil {
			return fmt.Errorf("reward %d: %w", i, err)
		}
		if def.Conditions == nil {
			rule.Rewards[i].Conditions = []RewardCondition{}
		}
	}
	if rule.Conditions == nil {
		rule.Conditions = []Condition{}
	}
	if rule.Rewards == nil {
		rule.Rewards = []RewardDefinition{}
	}

	expr, err := CompileConditions(rule.Conditions)
	if err != nil {
		r.logger.Warn("rule conditions not compiled", zap.String("rule_name", rule.RuleName), zap.Error(err))
	}
	rule.Expression = expr
	return nil
}

// Create stores rule under a freshly issued id; any client supplied id is ignored.
func (r *Registry) Create(ctx context.Context, tx *gorm.DB, rule Rule, now time.Time) (*Rule, error) {
	if err := r.prepare(&rule); err != nil {
		return nil, err
	}

	err := r.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := r.repo.WithTrx(tx)

		// update_rule may already have stored a rule under an id the counter has not issued yet
		var id sequence.ID
		for {
			var err error
			if id, err = r.seq.Next(ctx, tx, sequence.NamespaceRule); err != nil {
				return domain.SystemError(err)
			}
			taken, err := repo.GetByID(ctx, id.String())
			if err != nil {
				return domain.SystemError(err)
			}
			if taken == nil {
				break
			}
		}

		rule.RuleID = id.String()
		rule.Seq = id.Value
		rule.CreatedAt = now.UTC()
		rule.UpdatedAt = rule.CreatedAt

		if err := repo.Create(ctx, &rule); err != nil {
			return domain.SystemError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("rule created", zap.String("rule_id", rule.RuleID), zap.String("expression", rule.Expression))
	return &rule, nil
}

// Update overwrites the rule stored under ruleID, creating it when absent. created_at is kept
// from the stored record.
func (r *Registry) Update(ctx context.Context, tx *gorm.DB, ruleID string, rule Rule, now time.Time) (*Rule, error) {
	if ruleID == "" {
		return nil, fmt.Errorf("%w: rule_id is required", domain.ErrInvalidMessage)
	}
	if err := r.prepare(&rule); err != nil {
		return nil, err
	}

	err := r.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := r.repo.WithTrx(tx)

		existing, err := repo.GetByID(ctx, ruleID)
		if err != nil {
			return domain.SystemError(err)
		}

		rule.RuleID = ruleID
		rule.UpdatedAt = now.UTC()
		if existing != nil {
			rule.Seq = existing.Seq
			rule.CreatedAt = existing.CreatedAt
		} else {
			rule.Seq = 0
			rule.CreatedAt = rule.UpdatedAt
		}

		if err := repo.Upsert(ctx, &rule); err != nil {
			return domain.SystemError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Delete removes ruleID and reports whether it existed. A missing rule is not an error.
func (r *Registry) Delete(ctx context.Context, tx *gorm.DB, ruleID string) (bool, error) {
	var n int64
	err := r.inTx(ctx, tx, func(tx *gorm.DB) error {
		var err error
		n, err = r.repo.WithTrx(tx).Delete(ctx, ruleID)
		return domain.SystemError(err)
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Registry) Get(ctx context.Context, ruleID string) (*Rule, error) {
	rule, err := r.repo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, domain.SystemError(err)
	}
	if rule == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRuleNotFound, ruleID)
	}
	return rule, nil
}

func (r *Registry) List(ctx context.Context) ([]*Rule, error) {
	rules, err := r.repo.List(ctx)
	if err != nil {
		return nil, domain.SystemError(err)
	}
	return rules, nil
}

func (r *Registry) Count(ctx context.Context) (int64, error) {
	n, err := r.repo.Count(ctx)
	if err != nil {
		return 0, domain.SystemError(err)
	}
	return n, nil
}
