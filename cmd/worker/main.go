package main

import (
	"log"

	"luckee-incentive/internal/app"
	"luckee-incentive/pkg/task"
	"luckee-incentive/services/bootstrap"
	"luckee-incentive/services/expiry"

	"go.uber.org/fx"
)

func main() {
	opts := []fx.Option{
		app.Core(),
		bootstrap.Module,
		task.Client,
		task.Server,
		expiry.Module,
		expiry.SchedulerModule,
		expiry.Worker,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}
