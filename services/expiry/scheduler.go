package expiry

import (
	"context"
	"fmt"
	"time"

	"luckee-incentive/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Scheduler struct {
	service      *Service
	hour, minute int
}

func NewScheduler(cfg *config.Config, svc *Service) (*Scheduler, error) {
	hour, minute, err := parseClock(cfg.Worker.ExpiryAt)
	if err != nil {
		return nil, err
	}
	return &Scheduler{service: svc, hour: hour, minute: minute}, nil
}

// StartScheduler runs the daily loop for the lifetime of the app.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("[Scheduler] started reward expiry scheduler", zap.Int("hour", s.hour), zap.Int("minute", s.minute))

	for {
		now := time.Now().UTC()
		next := nextRunTime(now, s.hour, s.minute)

		sleepDuration := next.Sub(now)
		zap.L().Info("[Scheduler] next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleepDuration),
		)

		timer := time.NewTimer(sleepDuration)
		select {
		case <-timer.C:
			s.runDaily(ctx)
		case <-ctx.Done():
			timer.Stop()
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	job, err := s.service.Enqueue(ctx)
	if err != nil {
		zap.L().Error("[Scheduler] failed to enqueue reward expiry", zap.Error(err))
		return
	}
	zap.L().Info("[Scheduler] enqueued reward expiry", zap.String("job_id", job.ID))
}

// nextRunTime returns the first hour:minute strictly after now.
func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func parseClock(v string) (hour, minute int, err error) {
	if v == "" {
		return 1, 0, nil
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid WORKER.EXPIRY_AT %q: %w", v, err)
	}
	return t.Hour(), t.Minute(), nil
}
