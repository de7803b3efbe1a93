package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/delivery/internal/dal/rabbitmq"
	outboxrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/outbox/postgres"
	userrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/user/postgres"
	"github.com/corray333/backend-labs/delivery/internal/otel"
	"github.com/corray333/backend-labs/delivery/internal/pubsub"
	"github.com/corray333/backend-labs/delivery/internal/service/services/ordersvc"
	graphqltransport "github.com/corray333/backend-labs/delivery/internal/transport/graphql"
	httptransport "github.com/corray333/backend-labs/delivery/internal/transport/http"
	"github.com/corray333/backend-labs/delivery/internal/transport/http/middleware/auth"
	"github.com/corray333/backend-labs/delivery/internal/worker/outbox"
	"github.com/corray333/backend-labs/delivery/pkg/jwt"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// App represents the application.
type App struct {
	otel           *otel.OtelController
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	bus            *pubsub.Bus
	orderSvc       *ordersvc.OrderService
	outboxWorker   *outbox.Worker
	transport      *httptransport.HTTPTransport
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	exchange := viper.GetString("rabbitmq.exchange")
	mustDeclareTopology(rabbitClient, exchange)

	bus := pubsub.New(pubsub.WithBufferSize(viper.GetInt("pubsub.buffer_size")))

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithBus(bus),
		ordersvc.WithExchange(exchange),
	)

	outboxWorker := outbox.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.Pool()),
		rabbitClient,
	)

	authenticator := auth.NewAuthenticator(
		jwt.MustNewManager(),
		userrepo.NewPostgresUserRepository(postgresClient.Pool()),
	)
	transport := httptransport.NewHTTPTransport(
		graphqltransport.MustNewSchema(orderSvc),
		authenticator,
		httptransport.WithHealthCheck("postgres", postgresClient.Pool().Ping),
		httptransport.WithHealthCheck("rabbitmq", rabbitClient.Check),
	)
	transport.RegisterRoutes()

	return &App{
		otel:           otelController,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		bus:            bus,
		orderSvc:       orderSvc,
		outboxWorker:   outboxWorker,
		transport:      transport,
	}
}

// mustDeclareTopology declares the order events exchange and, when configured, the audit queue bound to it.
func mustDeclareTopology(client *rabbitmq.Client, exchange string) {
	if err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Durable: true,
	}); err != nil {
		panic(fmt.Sprintf("Failed to declare exchange %s: %v", exchange, err))
	}

	queue := viper.GetString("rabbitmq.audit_queue")
	if queue == "" {
		return
	}
	if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queue,
		Durable: true,
	}); err != nil {
		panic(fmt.Sprintf("Failed to declare queue %s: %v", queue, err))
	}
	if err := client.BindQueue(queue, "order.#", exchange); err != nil {
		panic(fmt.Sprintf("Failed to bind queue %s: %v", queue, err))
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.outboxWorker.Start(ctx)

		return nil
	})

	g.Go(func() error {
		select {
		case <-stop:
			slog.Info("Shutdown signal received")
		case <-ctx.Done():
			slog.Info("Component failed, shutting down")
		}
		a.shutdown()

		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}

	slog.Info("Application shutdown complete")
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	a.bus.Close()
	slog.Info("Notification bus closed gracefully")

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("OpenTelemetry shutdown error", "error", err)
	} else {
		slog.Info("OpenTelemetry stopped gracefully")
	}
}
