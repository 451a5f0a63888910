package expiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/events"
	"luckee-incentive/pkg/taskname"
	"luckee-incentive/services/incentive"
	"luckee-incentive/services/testutil"
)

type captureEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (c *captureEnqueuer) Enqueue(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, t)
	return &asynq.TaskInfo{Type: t.Type()}, nil
}

type fakeExecutor struct {
	admin   string
	expired string
	err     error
	callers []string
}

func (f *fakeExecutor) Admin(context.Context) (string, error) { return f.admin, nil }

func (f *fakeExecutor) Execute(_ context.Context, caller string, msg incentive.ExecuteMsg) (*incentive.Response, error) {
	f.callers = append(f.callers, caller)
	if f.err != nil {
		return nil, f.err
	}
	if msg.ExpireRewards == nil {
		return nil, domain.ErrInvalidMessage
	}
	return &incentive.Response{Attributes: []events.Attribute{
		events.NewAttribute("method", incentive.MethodExpireRewards),
		events.NewAttribute("expired", f.expired),
	}}, nil
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, enq *captureEnqueuer, exec *fakeExecutor) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &Job{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:       db,
		Node:     node,
		Enqueuer: enq,
		Executor: exec,
		Clock:    testutil.NewClock(t0).Now,
	})
}

func TestService_EnqueueThenHandle(t *testing.T) {
	enq := &captureEnqueuer{}
	exec := &fakeExecutor{admin: "admin", expired: "3"}
	svc := newTestService(t, enq, exec)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx)
	require.NoError(t, err)
	require.Equal(t, JobPending, job.Status)
	require.Len(t, enq.tasks, 1)
	require.Equal(t, taskname.RewardExpire, enq.tasks[0].Type())

	require.NoError(t, svc.HandleExpiryTask(ctx, enq.tasks[0]))
	require.Equal(t, []string{"admin"}, exec.callers)

	stored, err := svc.jobs.FindOne(ctx, &Job{ID: job.ID})
	require.NoError(t, err)
	require.Equal(t, JobSuccess, stored.Status)
	require.Equal(t, int64(3), stored.Expired)
	require.NotNil(t, stored.CompletedAt)
}

func TestService_FailedSweepIsRecorded(t *testing.T) {
	exec := &fakeExecutor{admin: "admin", err: domain.ErrSystem}
	svc := newTestService(t, &captureEnqueuer{}, exec)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx)
	require.NoError(t, err)

	_, err = svc.Run(ctx, job)
	require.ErrorIs(t, err, domain.ErrSystem)

	stored, err := svc.jobs.FindOne(ctx, &Job{ID: job.ID})
	require.NoError(t, err)
	require.Equal(t, JobFailed, stored.Status)
	require.NotEmpty(t, stored.ErrorMsg)
}

func TestService_EnqueueFailureMarksJobFailed(t *testing.T) {
	svc := newTestService(t, &captureEnqueuer{err: errors.New("redis down")}, &fakeExecutor{})
	ctx := context.Background()

	_, err := svc.Enqueue(ctx)
	require.Error(t, err)

	jobs, err := svc.jobs.Find(ctx, &Job{Status: JobFailed})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestService_HandleRejectsBadPayload(t *testing.T) {
	svc := newTestService(t, &captureEnqueuer{}, &fakeExecutor{})

	err := svc.HandleExpiryTask(context.Background(), asynq.NewTask(taskname.RewardExpire, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestService_HandleRejectsMissingJobID(t *testing.T) {
	exec := &fakeExecutor{admin: "admin", expired: "0"}
	svc := newTestService(t, &captureEnqueuer{}, exec)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx)
	require.NoError(t, err)

	err = svc.HandleExpiryTask(ctx, asynq.NewTask(taskname.RewardExpire, []byte(`{}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, exec.callers)

	stored, err := svc.jobs.FindOne(ctx, &Job{ID: job.ID})
	require.NoError(t, err)
	require.Equal(t, JobPending, stored.Status)
}

func TestNextRunTime(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC), nextRunTime(now, 1, 0))

	now = time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC), nextRunTime(now, 1, 0))
}

func TestParseClock(t *testing.T) {
	h, m, err := parseClock("23:45")
	require.NoError(t, err)
	require.Equal(t, 23, h)
	require.Equal(t, 45, m)

	h, m, err = parseClock("")
	require.NoError(t, err)
	require.Equal(t, 1, h)
	require.Equal(t, 0, m)

	_, _, err = parseClock("25:00")
	require.Error(t, err)
}
