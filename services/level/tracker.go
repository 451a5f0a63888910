package level

import (
	"context"
	"fmt"
	"time"

	"luckee-incentive/pkg/db/option"
	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/repository"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Tracker struct {
	store  repository.Repository[Info]
	logger *zap.Logger
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Logger *zap.Logger `optional:"true"`
}

func NewTracker(p Params) *Tracker {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:  repository.ProvideStore[Info](p.DB),
		logger: logger.Named("level"),
	}
}

func (t *Tracker) load(ctx context.Context, store repository.Repository[Info], user string) (*Info, error) {
	info, err := store.FindOne(ctx, nil, option.Equal("user_id", user), option.WithLockingUpdate())
	if err != nil {
		return nil, domain.SystemError(err)
	}
	if info == nil {
		return defaultInfo(user), nil
	}
	return info, nil
}

// UpdatePoints sets the points of user, creating a Bronze record on first use. No other field
// changes.
func (t *Tracker) UpdatePoints(ctx context.Context, tx *gorm.DB, user string, points uint32) (*Info, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidMessage)
	}

	store := t.store.WithTrx(tx)
	info, err := t.load(ctx, store, user)
	if err != nil {
		return nil, err
	}

	info.Points = points
	if err := store.Save(ctx, info); err != nil {
		return nil, domain.SystemError(err)
	}
	return info, nil
}

// SetLevel assigns level to user. Moving to a higher level counts as a level up at now; points
// are untouched.
func (t *Tracker) SetLevel(ctx context.Context, tx *gorm.DB, user string, level domain.UserLevel, now time.Time) (*Info, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidMessage)
	}
	if !level.IsValid() {
		return nil, fmt.Errorf("%w: unknown level %q", domain.ErrInvalidMessage, level)
	}

	store := t.store.WithTrx(tx)
	info, err := t.load(ctx, store, user)
	if err != nil {
		return nil, err
	}

	if level.Rank() > info.Level.Rank() {
		info.LevelUpCount++
		at := now.UTC()
		info.LastLevelUp = &at
		t.logger.Debug("level up", zap.String("user", user), zap.String("from", string(info.Level)), zap.String("to", string(level)))
	}
	info.Level = level

	if err := store.Save(ctx, info); err != nil {
		return nil, domain.SystemError(err)
	}
	return info, nil
}

// Get returns the record of user or domain.ErrUserNotFound.
func (t *Tracker) Get(ctx context.Context, user string) (*Info, error) {
	info, err := t.store.FindOne(ctx, nil, option.Equal("user_id", user))
	if err != nil {
		return nil, domain.SystemError(err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, user)
	}
	return info, nil
}
