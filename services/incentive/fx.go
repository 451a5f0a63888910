package incentive

import (
	"go.uber.org/fx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

var Module = fx.Module("incentive.dispatcher",
	fx.Provide(
		NewDispatcher,
		NewHealthServer,
	),
)

// GRPC registers the health service on the gRPC server.
var GRPC = fx.Module("incentive.grpc",
	fx.Invoke(registerHealthServer),
)

func registerHealthServer(server *grpc.Server, health *HealthServer) {
	grpc_health_v1.RegisterHealthServer(server, health)
}
