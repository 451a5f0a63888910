package expiry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"luckee-incentive/pkg/db/option"
	"luckee-incentive/pkg/repository"
	"luckee-incentive/pkg/task"
	"luckee-incentive/pkg/taskname"
	"luckee-incentive/services/incentive"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Executor is the slice of the dispatcher the sweep needs.
type Executor interface {
	Admin(ctx context.Context) (string, error)
	Execute(ctx context.Context, caller string, msg incentive.ExecuteMsg) (*incentive.Response, error)
}

type Service struct {
	jobs     repository.Repository[Job]
	node     *snowflake.Node
	enqueuer task.Enqueuer
	executor Executor
	now      func() time.Time
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Enqueuer task.Enqueuer `optional:"true"`
	Executor Executor
	Clock    func() time.Time `name:"clock" optional:"true"`
}

func NewService(p Params) *Service {
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		jobs:     repository.ProvideStore[Job](p.DB),
		node:     p.Node,
		enqueuer: p.Enqueuer,
		executor: p.Executor,
		now:      now,
	}
}

// Enqueue records a pending job and hands it to the queue.
func (s *Service) Enqueue(ctx context.Context) (*Job, error) {
	if s.enqueuer == nil {
		return nil, fmt.Errorf("expiry: no task queue configured")
	}

	job := &Job{
		ID:        s.node.Generate().String(),
		TaskName:  taskname.RewardExpire,
		Status:    JobPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	body, _ := json.Marshal(payload{JobID: job.ID})
	if _, err := s.enqueuer.Enqueue(ctx, asynq.NewTask(taskname.RewardExpire, body),
		asynq.Queue(taskname.QueueDefault),
		asynq.TaskID(job.ID),
		asynq.MaxRetry(3),
	); err != nil {
		s.finish(ctx, job, 0, err)
		return nil, err
	}

	zap.L().Info("enqueued reward expiry job", zap.String("job_id", job.ID))
	return job, nil
}

// HandleExpiryTask is the asynq handler for taskname.RewardExpire.
func (s *Service) HandleExpiryTask(ctx context.Context, t *asynq.Task) error {
	var p payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		zap.L().Error("invalid expiry payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if p.JobID == "" {
		return fmt.Errorf("expiry payload has no job_id: %w", asynq.SkipRetry)
	}

	job, err := s.jobs.FindOne(ctx, nil, option.Equal("id", p.JobID))
	if err != nil {
		return err
	}
	if job == nil {
		job = &Job{ID: p.JobID, TaskName: taskname.RewardExpire, CreatedAt: s.now().UTC()}
		if err := s.jobs.Create(ctx, job); err != nil {
			return err
		}
	}

	_, err = s.Run(ctx, job)
	return err
}

// Run executes the sweep as the stored admin and records the outcome on job.
func (s *Service) Run(ctx context.Context, job *Job) (int64, error) {
	started := s.now().UTC()
	if err := s.jobs.Update(ctx, job.ID, map[string]any{
		"status":     JobRunning,
		"started_at": started,
	}); err != nil {
		return 0, err
	}
	job.Status = JobRunning
	job.StartedAt = &started

	admin, err := s.executor.Admin(ctx)
	if err != nil {
		s.finish(ctx, job, 0, err)
		return 0, err
	}

	resp, err := s.executor.Execute(ctx, admin, incentive.ExecuteMsg{ExpireRewards: &incentive.ExpireRewards{}})
	if err != nil {
		s.finish(ctx, job, 0, err)
		return 0, err
	}

	v, _ := resp.Attr("expired")
	n, _ := strconv.ParseInt(v, 10, 64)
	s.finish(ctx, job, n, nil)

	zap.L().Info("reward expiry job finished", zap.String("job_id", job.ID), zap.Int64("expired", n))
	return n, nil
}

func (s *Service) finish(ctx context.Context, job *Job, expired int64, runErr error) {
	done := s.now().UTC()
	updates := map[string]any{
		"status":       JobSuccess,
		"expired":      expired,
		"completed_at": done,
	}
	job.Status = JobSuccess
	if runErr != nil {
		updates["status"] = JobFailed
		updates["error_msg"] = runErr.Error()
		job.Status = JobFailed
		job.ErrorMsg = runErr.Error()
	}
	job.Expired = expired
	job.CompletedAt = &done

	if err := s.jobs.Update(ctx, job.ID, updates); err != nil {
		zap.L().Error("failed to record expiry job result", zap.String("job_id", job.ID), zap.Error(err))
	}
}
