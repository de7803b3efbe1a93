// Package metrics owns the business instruments of the service.
// Instruments are created from the global meter, so they start reporting once the otel package
// installs a meter provider and are no-ops before that.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ordersCreated   metric.Int64Counter
	statusChanges   metric.Int64Counter
	driversAssigned metric.Int64Counter
	eventsPublished metric.Int64Counter
	eventsDropped   metric.Int64Counter
	subscriptions   metric.Int64UpDownCounter
)

func init() {
	meter := otel.Meter("github.com/corray333/backend-labs/delivery")

	ordersCreated, _ = meter.Int64Counter("delivery_orders_created",
		metric.WithDescription("Orders placed by customers"))
	statusChanges, _ = meter.Int64Counter("delivery_order_status_changes",
		metric.WithDescription("Order status transitions by target status"))
	driversAssigned, _ = meter.Int64Counter("delivery_order_drivers_assigned",
		metric.WithDescription("Orders claimed by drivers"))
	eventsPublished, _ = meter.Int64Counter("delivery_bus_events_published",
		metric.WithDescription("Events delivered to bus subscribers by topic"))
	eventsDropped, _ = meter.Int64Counter("delivery_bus_events_dropped",
		metric.WithDescription("Events dropped because a subscriber buffer was full"))
	subscriptions, _ = meter.Int64UpDownCounter("delivery_bus_subscriptions",
		metric.WithDescription("Active bus subscriptions by topic"))
}

func OrderCreated(ctx context.Context) {
	ordersCreated.Add(ctx, 1)
}

func StatusChanged(ctx context.Context, status string) {
	statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func DriverAssigned(ctx context.Context) {
	driversAssigned.Add(ctx, 1)
}

func EventDelivered(ctx context.Context, topic string) {
	eventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

func EventDropped(ctx context.Context, topic string) {
	eventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

func SubscriptionOpened(ctx context.Context, topic string) {
	subscriptions.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

func SubscriptionClosed(ctx context.Context, topic string) {
	subscriptions.Add(ctx, -1, metric.WithAttributes(attribute.String("topic", topic)))
}
