// Package otel wires the OpenTelemetry tracer provider. Spans go to a
// stdout exporter; swap in OTLP here when a collector exists.
package otel

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Config identifies the service in exported spans.
type Config struct {
	ServiceName string
	Version     string
	Environment string
}

// Setup installs the global tracer provider and returns its shutdown
// function; call it during graceful exit so buffered spans flush.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger, w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	// Built without Default() merging; mixing schema versions makes
	// resource.Merge error at startup.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing enabled",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	)

	return tp.Shutdown, nil
}
