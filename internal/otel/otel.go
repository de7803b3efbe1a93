package otel

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/delivery/internal/jaeger"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// OtelController owns the trace and metric providers of the process.
type OtelController struct {
	traceProvider *sdktrace.TracerProvider
	meterProvider *sdkmetric.MeterProvider
}

// MustInitOtel installs global tracer and meter providers.
// Spans go to Jaeger, metrics are exposed through the default Prometheus registry.
func MustInitOtel() *OtelController {
	serviceName := viper.GetString("otel.service_name")
	if serviceName == "" {
		serviceName = "delivery-svc"
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	jaegerExporter := jaeger.MustNewJaeger()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(jaegerExporter),
		sdktrace.WithResource(res),
	)

	promExporter, err := prometheus.New()
	if err != nil {
		panic(err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &OtelController{
		traceProvider: tp,
		meterProvider: mp,
	}
}

// Shutdown flushes and stops both providers.
func (o *OtelController) Shutdown(ctx context.Context) error {
	return errors.Join(
		o.traceProvider.Shutdown(ctx),
		o.meterProvider.Shutdown(ctx),
	)
}
