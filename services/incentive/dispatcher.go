package incentive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"luckee-incentive/pkg/access"
	"luckee-incentive/pkg/address"
	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/events"
	"luckee-incentive/pkg/repository"
	"luckee-incentive/pkg/sequence"
	"luckee-incentive/services/contract"
	"luckee-incentive/services/level"
	"luckee-incentive/services/reward"
	"luckee-incentive/services/rule"
	"luckee-incentive/services/stats"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dispatcher is the single entry point of the incentive core. Every command runs in one
// transaction and emits its attributes only after commit.
type Dispatcher struct {
	db        *gorm.DB
	settings  settingStore
	ledger    *reward.Ledger
	rules     *rule.Registry
	contracts *contract.Registry
	levels    *level.Tracker
	stats     *stats.Aggregator
	validator *address.Validator
	publisher events.Publisher
	tracer    trace.Tracer
	logger    *zap.Logger

	now func() time.Time

	mu     sync.Mutex
	policy *access.Policy
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Ledger    *reward.Ledger
	Rules     *rule.Registry
	Contracts *contract.Registry
	Levels    *level.Tracker
	Stats     *stats.Aggregator
	Validator *address.Validator
	Publisher events.Publisher `optional:"true"`
	Logger    *zap.Logger      `optional:"true"`
	Clock     func() time.Time `name:"clock" optional:"true"`
}

func NewDispatcher(p Params) *Dispatcher {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		db:        p.DB,
		settings:  settingStore{repo: repository.ProvideStore[Setting](p.DB)},
		ledger:    p.Ledger,
		rules:     p.Rules,
		contracts: p.Contracts,
		levels:    p.Levels,
		stats:     p.Stats,
		validator: p.Validator,
		publisher: publisher,
		tracer:    otel.Tracer("luckee-incentive/services/incentive"),
		logger:    logger.Named("incentive"),
		now:       now,
	}
}

// Models lists every table the core owns, for migrations.
func Models() []any {
	return []any{
		&Setting{},
		&reward.Reward{},
		&rule.Rule{},
		&contract.Registration{},
		&level.Info{},
		&sequence.Counter{},
	}
}

// Instantiate stores the admin and config. The admin defaults to the caller. A second call fails
// with domain.ErrOperationNotAllowed.
func (d *Dispatcher) Instantiate(ctx context.Context, caller string, msg InstantiateMsg) (*Response, error) {
	ctx, span := d.tracer.Start(ctx, "incentive.instantiate")
	defer span.End()

	admin := caller
	if msg.Admin != nil && *msg.Admin != "" {
		admin = *msg.Admin
	}
	admin, err := d.validator.Validate(admin)
	if err != nil {
		return nil, d.fail(span, MethodInstantiate, err)
	}

	now := d.now().UTC()
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := d.settings.load(ctx, tx)
		if err != nil {
			return err
		}
		if st != nil {
			return fmt.Errorf("%w: already instantiated", domain.ErrOperationNotAllowed)
		}
		if err := d.settings.save(ctx, tx, settingAdmin, admin, now); err != nil {
			return err
		}
		return d.settings.save(ctx, tx, settingConfig, msg.Config, now)
	})
	if err != nil {
		return nil, d.fail(span, MethodInstantiate, err)
	}

	cfg, _ := json.Marshal(msg.Config)
	resp := newResponse(MethodInstantiate, "admin", admin, "config", string(cfg)).withData(msg.Config)
	d.committed(ctx, caller, MethodInstantiate, resp, now)
	return resp, nil
}

// Execute runs one command for caller. Every command except claim_reward requires the caller to
// be the admin.
func (d *Dispatcher) Execute(ctx context.Context, caller string, msg ExecuteMsg) (*Response, error) {
	method, err := msg.Method()
	if err != nil {
		commandsTotal.WithLabelValues("unknown", resultOf(err)).Inc()
		return nil, err
	}

	ctx, span := d.tracer.Start(ctx, "incentive.execute."+method, trace.WithAttributes(
		attribute.String("incentive.method", method),
		attribute.String("incentive.caller", caller),
	))
	defer span.End()

	now := d.now().UTC()
	var resp *Response
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := d.settings.load(ctx, tx)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("%w: not instantiated", domain.ErrOperationNotAllowed)
		}
		if method != MethodClaimReward {
			policy, err := d.policyFor(st.Admin)
			if err != nil {
				return err
			}
			if err := policy.Authorize(caller, method); err != nil {
				return err
			}
		}

		resp, err = d.handle(ctx, tx, caller, now, st, msg)
		return err
	})
	if err != nil {
		return nil, d.fail(span, method, err)
	}

	d.committed(ctx, caller, method, resp, now)
	return resp, nil
}

func (d *Dispatcher) handle(ctx context.Context, tx *gorm.DB, caller string, now time.Time, st *State, msg ExecuteMsg) (*Response, error) {
	switch {
	case msg.DistributeReward != nil:
		return d.distributeReward(ctx, tx, now, st, msg.DistributeReward)
	case msg.ClaimReward != nil:
		return d.claimReward(ctx, tx, caller, now, msg.ClaimReward)
	case msg.MintForPoints != nil:
		return d.mintForPoints(ctx, tx, now, st, msg.MintForPoints)
	case msg.CreateRule != nil:
		return d.createRule(ctx, tx, now, msg.CreateRule)
	case msg.UpdateRule != nil:
		return d.updateRule(ctx, tx, now, msg.UpdateRule)
	case msg.DeleteRule != nil:
		return d.deleteRule(ctx, tx, msg.DeleteRule)
	case msg.RegisterContract != nil:
		return d.registerContract(ctx, tx, now, msg.RegisterContract)
	case msg.UpdateUserLevel != nil:
		return d.updateUserLevel(ctx, tx, msg.UpdateUserLevel)
	case msg.UpdateConfig != nil:
		return d.updateConfig(ctx, tx, now, msg.UpdateConfig)
	case msg.CancelReward != nil:
		return d.cancelReward(ctx, tx, now, msg.CancelReward)
	case msg.ExpireRewards != nil:
		return d.expireRewards(ctx, tx, now)
	case msg.UpdateContractStatus != nil:
		return d.updateContractStatus(ctx, tx, msg.UpdateContractStatus)
	case msg.SetUserLevel != nil:
		return d.setUserLevel(ctx, tx, now, msg.SetUserLevel)
	}
	return nil, domain.ErrInvalidMessage
}

func (d *Dispatcher) policyFor(admin string) (*access.Policy, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.policy != nil && d.policy.Admin() == admin {
		return d.policy, nil
	}
	p, err := access.NewPolicy(admin)
	if err != nil {
		return nil, err
	}
	d.policy = p
	return p, nil
}

func (d *Dispatcher) fail(span trace.Span, method string, err error) error {
	result := resultOf(err)
	commandsTotal.WithLabelValues(method, result).Inc()

	span.RecordError(err)
	span.SetStatus(codes.Error, result)

	if errors.Is(err, domain.ErrSystem) {
		d.logger.Error("command failed", zap.String("method", method), zap.Error(err))
	} else {
		d.logger.Debug("command rejected", zap.String("method", method), zap.Error(err))
	}
	return err
}

// committed runs the post-commit side effects. Failures here never undo the command.
func (d *Dispatcher) committed(ctx context.Context, caller, method string, resp *Response, now time.Time) {
	commandsTotal.WithLabelValues(method, "ok").Inc()

	d.stats.Invalidate(ctx)

	evt := events.Event{
		Method:     method,
		Caller:     caller,
		Attributes: resp.Attributes,
		OccurredAt: now,
	}
	if err := d.publisher.Publish(ctx, evt); err != nil {
		d.logger.Warn("failed to publish event", zap.String("method", method), zap.Error(err))
	}
}
