package main

import (
	"log"

	"luckee-incentive/internal/app"
	"luckee-incentive/internal/httpapi"
	"luckee-incentive/pkg/health"
	"luckee-incentive/pkg/server"
	"luckee-incentive/services/bootstrap"
	"luckee-incentive/services/incentive"

	"go.uber.org/fx"
)

func main() {
	opts := []fx.Option{
		app.Core(),
		bootstrap.Module,
		health.Module,
		httpapi.Module,
		incentive.GRPC,
		server.ProvideGRPCServer,
		server.ProvideHTTPServer,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}
