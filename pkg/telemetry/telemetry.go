// Package telemetry configures OpenTelemetry tracing for depfence.
//
// Tracing is off unless an OTLP endpoint is configured, either directly or
// through the standard OTEL_EXPORTER_OTLP_ENDPOINT environment variables.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	EnvEndpoint       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTracesEndpoint = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	EnvInsecure       = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultServiceName = "depfence"
	exportTimeout      = 10 * time.Second
)

var ErrCreateExporter = errors.New("create trace exporter")

// Config controls the tracer provider.
type Config struct {
	// Endpoint is the OTLP/gRPC collector address. Empty disables export.
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Insecure       bool
}

// ConfigFromEnv reads the OTLP exporter settings from the environment.
func ConfigFromEnv() Config {
	cfg := Config{
		Endpoint:    os.Getenv(EnvTracesEndpoint),
		ServiceName: defaultServiceName,
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv(EnvEndpoint)
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvInsecure)); err == nil {
		cfg.Insecure = v
	}

	return cfg
}

// Provider owns the tracer provider for the lifetime of the process.
type Provider struct {
	provider *sdktrace.TracerProvider
	noop     trace.TracerProvider
}

// Option configures [New].
type Option func(*options)

type options struct {
	exporter sdktrace.SpanExporter
	sync     bool
}

// WithExporter overrides the OTLP exporter, enabling tracing regardless of
// the configured endpoint.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) {
		o.exporter = exp
	}
}

// WithSyncExport exports each span as it ends instead of batching.
func WithSyncExport() Option {
	return func(o *options) {
		o.sync = true
	}
}

// New creates a [Provider]. When no endpoint or exporter is configured, the
// returned provider hands out no-op tracers.
func New(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.exporter == nil && cfg.Endpoint == "" {
		return &Provider{noop: noop.NewTracerProvider()}, nil
	}

	exp := o.exporter
	if exp == nil {
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithTimeout(exportTimeout)}
		if strings.Contains(cfg.Endpoint, "://") {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
		} else {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}

		var err error

		exp, err = otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCreateExporter, err)
		}
	}

	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", name)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}

	spanProcessor := sdktrace.WithBatcher(exp)
	if o.sync {
		spanProcessor = sdktrace.WithSyncer(exp)
	}

	return &Provider{
		provider: sdktrace.NewTracerProvider(
			spanProcessor,
			sdktrace.WithResource(resource.NewSchemaless(attrs...)),
		),
	}, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Tracer returns a named tracer.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.provider == nil {
		return p.noop.Tracer(name)
	}

	return p.provider.Tracer(name)
}

// Install registers p as the global tracer provider along with the W3C
// trace context propagator. It is a no-op for disabled providers.
func (p *Provider) Install() {
	if p.provider == nil {
		return
	}

	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}

	return p.provider.Shutdown(ctx)
}

// Setup builds a provider from the environment, installs it globally, and
// returns its shutdown function.
func Setup(ctx context.Context, version string) (func(context.Context) error, error) {
	cfg := ConfigFromEnv()
	cfg.ServiceVersion = version

	p, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p.Install()

	return p.Shutdown, nil
}
