package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// ProvisionTracer provides distributed tracing for provisioning flows
type ProvisionTracer struct {
	tracer trace.Tracer
}

// NewTracerProvider creates a new OpenTelemetry tracer provider
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(), // TODO: Add TLS configuration
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("dircore"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// NewProvisionTracer creates a tracer for the provisioning service
func NewProvisionTracer(serviceName string) *ProvisionTracer {
	return &ProvisionTracer{tracer: otel.Tracer(serviceName)}
}

// StartProvisionSpan starts the root span for an organization provisioning
// request.
func (pt *ProvisionTracer) StartProvisionSpan(ctx context.Context, requestID, tenantName string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "organization_provision",
		trace.WithAttributes(
			attribute.String("provision.request_id", requestID),
			attribute.String("provision.tenant_name", tenantName),
			attribute.String("component", "provisioning-service"),
		),
	)
}

// StartStepSpan starts a span for one creation step (tenant, domain, admin)
// within a provisioning request.
func (pt *ProvisionTracer) StartStepSpan(ctx context.Context, step string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "provision_step",
		trace.WithAttributes(
			attribute.String("provision.step", step),
			attribute.String("component", "provisioning-service"),
		),
	)
}

// RecordError marks a span as failed with the given error.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
