package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultInterval = 30 * time.Second

// Config holds meter provider configuration
type Config struct {
	Enabled     bool
	ServiceName string
	Interval    time.Duration
	Writer      io.Writer // stdout exporter target, nil disables it
	Endpoint    string    // OTLP/HTTP endpoint, optional
	Insecure    bool
}

// Provider owns the SDK meter provider. A disabled Provider hands out
// no-op meters.
type Provider struct {
	mp *sdkmetric.MeterProvider
}

// NewProvider builds a meter provider exporting through cfg's writer and
// endpoint plus any extra readers, and installs it as the global provider.
func NewProvider(ctx context.Context, cfg Config, readers ...sdkmetric.Reader) (*Provider, error) {
	p := &Provider{}
	if !cfg.Enabled {
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	if cfg.Writer != nil {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Writer))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)))
	}

	if cfg.Endpoint != "" {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)))
	}

	if len(readers) == 0 {
		return nil, errors.New("metrics enabled but no writer or endpoint configured")
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	p.mp = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(p.mp)
	return p, nil
}

// Meter returns the instrumentation meter.
func (p *Provider) Meter() metric.Meter {
	if p.mp == nil {
		return noop.Meter{}
	}
	return p.mp.Meter(instrumentationName)
}

// Shutdown flushes pending exports and stops the readers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.mp == nil {
		return nil
	}
	if err := p.mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("metric shutdown failed: %w", err)
	}
	return nil
}
