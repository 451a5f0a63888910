package expiry

import (
	"luckee-incentive/pkg/taskname"
	"luckee-incentive/services/incentive"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("expiry.service",
	fx.Provide(
		NewService,
		func(d *incentive.Dispatcher) Executor { return d },
	),
)

// Scheduler enqueues the daily sweep.
var SchedulerModule = fx.Module("expiry.scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(StartScheduler),
)

// Worker handles the sweep tasks.
var Worker = fx.Module("expiry.worker",
	fx.Invoke(registerHandlers),
)

func registerHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.RewardExpire, svc.HandleExpiryTask)
}
