package exporters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"luckee-incentive/pkg/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
)

const startTimeout = 10 * time.Second

// New builds the OTLP span exporter for OTEL.PROTOCOL ("grpc" or "http", grpc when empty).
// The collector is reached in plaintext unless TLS is enabled for the service.
func New(ctx context.Context, cfg *config.Config) (*otlptrace.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	switch strings.ToLower(cfg.Otel.Protocol) {
	case "", "grpc":
		return otlptrace.New(ctx, grpcClient(cfg))
	case "http":
		return otlptrace.New(ctx, httpClient(cfg))
	default:
		return nil, fmt.Errorf("otel: unsupported protocol %q", cfg.Otel.Protocol)
	}
}

func grpcClient(cfg *config.Config) otlptrace.Client {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Otel.Addr),
		otlptracegrpc.WithCompressor("gzip"),
	}
	if !cfg.TLS.Enable {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.NewClient(opts...)
}

func httpClient(cfg *config.Config) otlptrace.Client {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Otel.Addr),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}
	if !cfg.TLS.Enable {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.NewClient(opts...)
}
