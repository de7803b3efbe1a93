package jaeger

import (
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/jaeger"
)

// MustNewJaeger creates a span exporter pointed at the configured Jaeger collector.
func MustNewJaeger() *jaeger.Exporter {
	endpoint := viper.GetString("otel.jaeger_endpoint")
	if endpoint == "" {
		endpoint = "http://jaeger:14268/api/traces"
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(endpoint),
	))
	if err != nil {
		panic(err)
	}

	return exp
}
